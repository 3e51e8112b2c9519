package reactive

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// callerSite returns "dir/file.go:line" for the first caller outside this
// package. Used to tag derivations and reactors in debug mode.
func callerSite() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if !strings.Contains(fr.Function, "/pkg/reactive.") || strings.HasSuffix(fr.File, "_test.go") {
			return filepath.Base(filepath.Dir(fr.File)) + "/" + filepath.Base(fr.File) + ":" + strconv.Itoa(fr.Line)
		}
		if !more {
			return "unknown"
		}
	}
}
