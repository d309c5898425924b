package idb

import (
	"context"
	"errors"

	"github.com/mobile-next/idbtap/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeStatus = map[codes.Code]types.Status{
	codes.DeadlineExceeded:   types.StatusTimeout,
	codes.InvalidArgument:    types.StatusInvalidParameter,
	codes.OutOfRange:         types.StatusInvalidParameter,
	codes.NotFound:           types.StatusDeviceNotFound,
	codes.Unavailable:        types.StatusSimulatorNotRunning,
	codes.FailedPrecondition: types.StatusNotInitialized,
	codes.ResourceExhausted:  types.StatusOutOfMemory,
	codes.Unimplemented:      types.StatusNotSupported,
}

// fromGRPC converts a grpc error into the companion error taxonomy.
// Cancellation stays a context.Canceled so callers can tell an interrupt from
// a companion failure.
func fromGRPC(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewCompanionError(types.StatusTimeout, int(codes.DeadlineExceeded), err.Error())
	}

	st, ok := status.FromError(err)
	if !ok {
		return types.NewCompanionError(types.StatusOperationFailed, int(codes.Unknown), err.Error())
	}

	if st.Code() == codes.Canceled {
		return context.Canceled
	}

	s, known := codeStatus[st.Code()]
	if !known {
		s = types.StatusOperationFailed
	}
	return types.NewCompanionError(s, int(st.Code()), st.Message())
}
