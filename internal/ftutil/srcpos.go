package ftutil

import (
	"path/filepath"
	"runtime"
	"strings"
)

// SourcePosition is the Go stand-in for ft_source_position_t: the
// call-site captured when a domain error is constructed.
type SourcePosition struct {
	File string
	Func string
	Line int
}

// Here captures the call site skip frames above its own caller, the Go
// equivalent of the original runtime's source-position-capture macro.
// runtime.Caller is the only way to recover this information in Go —
// every logging library in the retrieval pack (zerolog included) falls
// back to the same mechanism internally, so there is no third-party
// alternative to wire in its place.
func Here(skip int) SourcePosition {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return SourcePosition{File: "???", Func: "???", Line: 0}
	}
	fn := runtime.FuncForPC(pc)
	name := "???"
	if fn != nil {
		name = fn.Name()
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
	}
	return SourcePosition{File: TruncateLogFilename(file), Func: name, Line: line}
}

// TruncateLogFilename shortens an absolute source path to its last two
// path components (package-dir/file.go), mirroring the original
// runtime's ft__truncate_log_filename, which exists purely so error
// messages stay readable without leaking build-machine paths.
func TruncateLogFilename(file string) string {
	file = filepath.ToSlash(file)
	parts := strings.Split(file, "/")
	if len(parts) <= 2 {
		return file
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
