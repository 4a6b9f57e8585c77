// Command basic demonstrates klass registration, inherited and
// overridden dispatch, a super-call from a child klass back into its
// parent's implementation, and domain-error construction and
// combination.
package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/fobjgo/fobj"
	"github.com/fobjgo/fobj/internal/ftutil"
)

type greeterFn func(self fobj.Object) *fobj.Str

var (
	methGreet = &fobj.MethodRef{}
	animalKl  = &fobj.KlassRef{}
	dogKl     = &fobj.KlassRef{}
)

type Animal struct {
	fobj.Base
	Name string
}

type Dog struct {
	Animal
}

func animalGreet(self fobj.Object) *fobj.Str {
	a := self.(*Animal)
	return fobj.Sprintf("%s makes a sound", a.Name)
}

func dogGreet(self fobj.Object) *fobj.Str {
	d := self.(*Dog)
	super, ok := fobj.DispatchSuper[greeterFn](d, methGreet, dogKl.Handle())
	if !ok {
		panic("dog's parent should implement greet")
	}
	base := super(&d.Animal)
	return fobj.Sprintf("%s and barks (parent said: %s)", d.Name, base.String())
}

func registerKlasses() {
	fobj.MethodInit(methGreet, "greet")

	fobj.KlassInit(animalKl, 0, 0, []fobj.MethodImpl{
		{Method: methGreet, Impl: greeterFn(animalGreet)},
	}, "Animal")

	fobj.KlassInit(dogKl, 0, animalKl.Handle(), []fobj.MethodImpl{
		{Method: methGreet, Impl: greeterFn(dogGreet)},
	}, "Dog")
}

func newDog(name string) *Dog {
	d := fobj.Alloc[Dog](dogKl)
	d.Name = name
	return d
}

func describe(obj fobj.Object) string {
	fn, ok := fobj.Dispatch[greeterFn](obj, methGreet)
	if !ok {
		return "<no greet>"
	}
	return fn(obj).String()
}

func main() {
	fobj.Init()
	registerKlasses()

	pool := fobj.PoolInit()
	defer fobj.PoolRelease(pool)

	rex := newDog("Rex")
	fmt.Println(describe(rex))

	// KlassInit is safe to call concurrently from multiple goroutines
	// registering the *same* klass repeatedly — every caller converges
	// on one handle.
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			p := fobj.PoolInit()
			defer fobj.PoolRelease(p)
			registerKlasses()
			d := newDog("Concurrent")
			if describe(d) == "" {
				return fmt.Errorf("empty greet under concurrent registration")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err := fobj.MakeErr("IO", "cannot open {path:q}: {code}",
		fobj.KV{Key: "path", Value: ftutil.ArgS("/tmp/x")},
		fobj.KV{Key: "code", Value: ftutil.ArgI(2)},
	)
	other := fobj.MakeErr("NET", "connection reset")
	combined := fobj.Combine(err, other)
	fmt.Println(combined.Error())

	fobj.Freeze()
}
