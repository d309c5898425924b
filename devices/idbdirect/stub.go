//go:build !idbdirect || !cgo

package idbdirect

import (
	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/types"
)

// Available reports whether the binding was compiled in.
func Available() bool { return false }

// Version is empty without the native library.
func Version() string { return "" }

// Open always fails in builds without the idbdirect tag.
func Open(opts Options) (devices.Companion, error) {
	return nil, types.NewCompanionError(types.StatusNotSupported, codeNotSupported, "idbtap was built without the direct backend (rebuild with -tags idbdirect)")
}
