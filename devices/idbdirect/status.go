// Package idbdirect binds the in-process idb_direct library. The binding is
// compiled only with the idbdirect build tag and cgo; other builds get a
// stub whose Open reports NotSupported.
package idbdirect

import (
	"bytes"
	"sync"

	"github.com/mobile-next/idbtap/types"
)

// shmFormatLen is the size of the char[16] format field of a shared-memory
// screenshot, which is not guaranteed to be NUL terminated.
const shmFormatLen = 16

// fixedCString converts a fixed-size C char array, stopping at the first
// NUL when there is one.
func fixedCString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// native status codes from idb_direct.h
const (
	codeSuccess             = 0
	codeNotInitialized      = -1
	codeInvalidParameter    = -2
	codeDeviceNotFound      = -3
	codeSimulatorNotRunning = -4
	codeOperationFailed     = -5
	codeTimeout             = -6
	codeOutOfMemory         = -7
	codeNotSupported        = -8
	codeNotImplemented      = -100
	codeUnsupported         = -101
)

var codeStatus = map[int]types.Status{
	codeNotInitialized:      types.StatusNotInitialized,
	codeInvalidParameter:    types.StatusInvalidParameter,
	codeDeviceNotFound:      types.StatusDeviceNotFound,
	codeSimulatorNotRunning: types.StatusSimulatorNotRunning,
	codeOperationFailed:     types.StatusOperationFailed,
	codeTimeout:             types.StatusTimeout,
	codeOutOfMemory:         types.StatusOutOfMemory,
	codeNotSupported:        types.StatusNotSupported,
	codeNotImplemented:      types.StatusNotSupported,
	codeUnsupported:         types.StatusNotSupported,
}

// statusError converts a native return code. describe is only consulted for
// OperationFailed and unknown codes, whose meaning lives in the library.
func statusError(code int, describe func(int) string) error {
	if code == codeSuccess {
		return nil
	}

	status, known := codeStatus[code]
	if !known {
		status = types.StatusUnknown
	}

	var message string
	if (status == types.StatusOperationFailed || status == types.StatusUnknown) && describe != nil {
		message = describe(code)
	}
	return types.NewCompanionError(status, code, message)
}

// Options configures the direct binding.
type Options struct {
	UDID string
	// SharedMemory takes screenshots through the shared-memory API, which
	// returns raw pixels (usually BGRA) with dimensions instead of an
	// encoded image.
	SharedMemory bool
	// Logs forwards the companion's log stream to the logger.
	Logs bool
}

// the native library keeps one connected target per process
var (
	instanceMu   sync.Mutex
	instanceOpen bool
)

func acquireInstance() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instanceOpen {
		return types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "the direct companion is already open in this process")
	}
	instanceOpen = true
	return nil
}

func releaseInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instanceOpen = false
}
