//go:build !linux

package tine

import (
	"fmt"
	"runtime"
)

// unsupportedPrimitive is the default on platforms without a raw fork
// implementation. Every attempt fails, which routes chains to their
// error clause (or the fail-loud default) rather than silently no-op'ing.
type unsupportedPrimitive struct{}

func (unsupportedPrimitive) Fork() (ForkResult, error) {
	return ForkResult{}, fmt.Errorf("process duplication is not supported on %s", runtime.GOOS)
}

var defaultPrimitive Primitive = unsupportedPrimitive{}
