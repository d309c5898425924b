package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mobile-next/idbtap/types"
)

const (
	BackendGRPC   = "grpc"
	BackendDirect = "direct"

	// DefaultAddress is where idb_companion listens unless told otherwise.
	DefaultAddress = "localhost:10882"

	// DefaultPress is the Down to Up gap of a single tap.
	DefaultPress = 50 * time.Millisecond
)

// Companion is an open session with idb_companion for one target. Calls are
// not safe for concurrent use; one request is in flight at a time.
type Companion interface {
	ID() string
	Backend() string

	TouchDown(ctx context.Context, x, y float64) error
	TouchUp(ctx context.Context, x, y float64) error
	Tap(ctx context.Context, x, y float64) error
	Swipe(ctx context.Context, from, to types.Point, duration time.Duration) error

	TakeScreenshot(ctx context.Context) (*types.Frame, error)

	ListApps(ctx context.Context) ([]types.InstalledApp, error)
	LaunchApp(ctx context.Context, bundleID string) error
	TerminateApp(ctx context.Context, bundleID string) error
	InstallApp(ctx context.Context, path string) error

	Close() error
}

// FrameStreamer is implemented by companions that push frames natively.
// onFrame returning false stops the stream early.
type FrameStreamer interface {
	StreamFrames(ctx context.Context, fps int, onFrame func(*types.Frame) bool) error
}

// FrameSource is the part of a Companion that Stream needs.
type FrameSource interface {
	TakeScreenshot(ctx context.Context) (*types.Frame, error)
}

// ValidateBackend checks a backend name.
func ValidateBackend(name string) error {
	switch name {
	case BackendGRPC, BackendDirect:
		return nil
	default:
		return fmt.Errorf("invalid backend '%s', must be '%s' or '%s'", name, BackendGRPC, BackendDirect)
	}
}

// TapWithPress sends Down, waits press, then sends Up. A failed Down is never
// followed by an Up.
func TapWithPress(ctx context.Context, c Companion, x, y float64, press time.Duration) error {
	if err := c.TouchDown(ctx, x, y); err != nil {
		return fmt.Errorf("touch down at (%g, %g) failed: %w", x, y, err)
	}

	timer := time.NewTimer(press)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if err := c.TouchUp(ctx, x, y); err != nil {
		return fmt.Errorf("touch up at (%g, %g) failed: %w", x, y, err)
	}
	return nil
}

// Stream delivers frames to onFrame for duration (0 runs until ctx is done
// or onFrame returns false). Sources that implement FrameStreamer stream
// natively, anything else is polled at fps. Returns the number of frames
// delivered.
func Stream(ctx context.Context, source FrameSource, fps int, duration time.Duration, onFrame func(*types.Frame) bool) (int, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("fps must be positive, got %d", fps)
	}

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	delivered := 0
	deliver := func(frame *types.Frame) bool {
		delivered++
		return onFrame(frame)
	}

	if streamer, ok := source.(FrameStreamer); ok {
		err := streamer.StreamFrames(ctx, fps, deliver)
		return delivered, streamEnd(ctx, err)
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		frame, err := source.TakeScreenshot(ctx)
		if err != nil {
			return delivered, streamEnd(ctx, err)
		}
		if !deliver(frame) {
			return delivered, nil
		}

		select {
		case <-ctx.Done():
			return delivered, streamEnd(ctx, ctx.Err())
		case <-ticker.C:
		}
	}
}

// streamEnd treats running out the requested duration as success.
func streamEnd(ctx context.Context, err error) error {
	if err == nil || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return err
}
