package fobj

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestPoolReleasesInReverseInsertionOrder(t *testing.T) {
	ensureCounterKlass()

	var order []int
	orderKlass := &KlassRef{}
	KlassInit(orderKlass, 8, 0, []MethodImpl{
		{MethDispose, DisposeFn(func(self Object) {
			order = append(order, self.(*orderObj).id)
		})},
	}, "TestOrderObj")

	p := PoolInit()
	for i := 1; i <= 3; i++ {
		o := Alloc[orderObj](orderKlass)
		o.id = i
	}
	PoolRelease(p)

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

type orderObj struct {
	Base
	id int
}

func TestStoreToParentPoolSurvivesChildRelease(t *testing.T) {
	ensureCounterKlass()
	outer := PoolInit()

	inner := PoolInit()
	c := newCounter()
	StoreToParentPool(c)
	PoolRelease(inner)

	before := counterDisposals
	if Disposed(c) {
		t.Fatalf("StoreToParentPool should have kept c alive past the inner pool's release")
	}

	PoolRelease(outer)
	if counterDisposals != before+1 {
		t.Fatalf("expected c to dispose once the outer pool (its new owner) releases")
	}
}

func TestPoolsAreIsolatedPerGoroutine(t *testing.T) {
	ensureCounterKlass()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			p := PoolInit()
			defer PoolRelease(p)
			for j := 0; j < 16; j++ {
				newCounter()
			}
			if currentPool() != p {
				t.Errorf("goroutine's current pool leaked across goroutines")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
