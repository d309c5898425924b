package idb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mobile-next/idbtap/types"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFromGRPC(t *testing.T) {
	tests := []struct {
		code codes.Code
		want types.Status
	}{
		{codes.DeadlineExceeded, types.StatusTimeout},
		{codes.InvalidArgument, types.StatusInvalidParameter},
		{codes.OutOfRange, types.StatusInvalidParameter},
		{codes.NotFound, types.StatusDeviceNotFound},
		{codes.Unavailable, types.StatusSimulatorNotRunning},
		{codes.FailedPrecondition, types.StatusNotInitialized},
		{codes.ResourceExhausted, types.StatusOutOfMemory},
		{codes.Unimplemented, types.StatusNotSupported},
		{codes.Internal, types.StatusOperationFailed},
		{codes.PermissionDenied, types.StatusOperationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := fromGRPC(status.Error(tt.code, "companion says no"))
			assert.Equal(t, tt.want, types.StatusOf(err))

			var ce *types.CompanionError
			if assert.True(t, errors.As(err, &ce)) {
				assert.Equal(t, int(tt.code), ce.Code)
				assert.Equal(t, "companion says no", ce.Message)
			}
		})
	}
}

func TestFromGRPC_Special(t *testing.T) {
	assert.NoError(t, fromGRPC(nil))

	assert.Equal(t, context.Canceled, fromGRPC(status.Error(codes.Canceled, "context canceled")))
	assert.Equal(t, context.Canceled, fromGRPC(fmt.Errorf("wrapped: %w", context.Canceled)))

	err := fromGRPC(context.DeadlineExceeded)
	assert.True(t, errors.Is(err, types.ErrTimeout))

	err = fromGRPC(errors.New("plain failure"))
	assert.True(t, errors.Is(err, types.ErrOperationFailed))
	assert.Contains(t, err.Error(), "plain failure")
}
