package types

import (
	"errors"
	"fmt"
)

// Status is the companion's result taxonomy. It is shared by the gRPC and the
// direct native backends so callers can branch on it without knowing which
// transport produced the error.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotInitialized
	StatusInvalidParameter
	StatusDeviceNotFound
	StatusSimulatorNotRunning
	StatusOperationFailed
	StatusTimeout
	StatusOutOfMemory
	StatusNotSupported
	StatusUnknown
)

var statusNames = map[Status]string{
	StatusSuccess:             "Success",
	StatusNotInitialized:      "NotInitialized",
	StatusInvalidParameter:    "InvalidParameter",
	StatusDeviceNotFound:      "DeviceNotFound",
	StatusSimulatorNotRunning: "SimulatorNotRunning",
	StatusOperationFailed:     "OperationFailed",
	StatusTimeout:             "Timeout",
	StatusOutOfMemory:         "OutOfMemory",
	StatusNotSupported:        "NotSupported",
	StatusUnknown:             "Unknown",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Sentinels for errors.Is matching against a *CompanionError.
var (
	ErrNotInitialized      = &CompanionError{Status: StatusNotInitialized}
	ErrInvalidParameter    = &CompanionError{Status: StatusInvalidParameter}
	ErrDeviceNotFound      = &CompanionError{Status: StatusDeviceNotFound}
	ErrSimulatorNotRunning = &CompanionError{Status: StatusSimulatorNotRunning}
	ErrOperationFailed     = &CompanionError{Status: StatusOperationFailed}
	ErrTimeout             = &CompanionError{Status: StatusTimeout}
	ErrOutOfMemory         = &CompanionError{Status: StatusOutOfMemory}
	ErrNotSupported        = &CompanionError{Status: StatusNotSupported}
)

// CompanionError is a non-success result reported by the companion.
// Code is the raw backend code (native status or gRPC code) and is kept for
// the Unknown bucket, where it is the only information available.
type CompanionError struct {
	Status  Status
	Code    int
	Message string
}

func (e *CompanionError) Error() string {
	switch {
	case e.Status == StatusUnknown:
		if e.Message != "" {
			return fmt.Sprintf("unknown error %d: %s", e.Code, e.Message)
		}
		return fmt.Sprintf("unknown error %d", e.Code)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	default:
		return e.Status.String()
	}
}

// Is matches on Status only, so errors.Is(err, types.ErrTimeout) holds for any
// timeout regardless of message or raw code.
func (e *CompanionError) Is(target error) bool {
	var other *CompanionError
	if !errors.As(target, &other) {
		return false
	}
	return other.Status == e.Status
}

// NewCompanionError builds an error for the given status.
func NewCompanionError(status Status, code int, message string) *CompanionError {
	return &CompanionError{Status: status, Code: code, Message: message}
}

// StatusOf extracts the taxonomy status from err. Errors that did not come
// from the companion report StatusUnknown; nil reports StatusSuccess.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var ce *CompanionError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return StatusUnknown
}
