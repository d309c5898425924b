package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/types"
)

// TapRequest represents the parameters for a tap command
type TapRequest struct {
	DeviceID string  `json:"deviceId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	// SingleStream sends the whole gesture as one companion call (one hid
	// stream over grpc, idb_tap on the direct backend) instead of separate
	// Down and Up calls.
	SingleStream bool `json:"singleStream,omitempty"`
}

// SwipeRequest represents the parameters for a swipe command
type SwipeRequest struct {
	DeviceID   string  `json:"deviceId"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	DurationMs int     `json:"durationMs,omitempty"`
}

// TapCommand sends a touch down, waits the configured press time and sends
// the matching touch up. With SingleStream the companion times the press.
func TapCommand(ctx context.Context, req TapRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%g, y=%g", req.X, req.Y))
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	if req.SingleStream {
		err = companion.Tap(ctx, req.X, req.Y)
	} else {
		press := CurrentConfig().Calibration.Timing.Press
		if press <= 0 {
			press = devices.DefaultPress
		}
		err = devices.TapWithPress(ctx, companion, req.X, req.Y, press)
	}
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap on device %s: %w", companion.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Tapped on device %s at (%g,%g)", companion.ID(), req.X, req.Y),
	})
}

// SwipeCommand performs a swipe operation on the specified device
func SwipeCommand(ctx context.Context, req SwipeRequest) *CommandResponse {
	if req.X1 < 0 || req.Y1 < 0 || req.X2 < 0 || req.Y2 < 0 {
		return NewErrorResponse(fmt.Errorf("swipe coordinates must be non-negative"))
	}
	if req.DurationMs < 0 {
		return NewErrorResponse(fmt.Errorf("duration must be non-negative, got %d", req.DurationMs))
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	from := types.Point{X: req.X1, Y: req.Y1}
	to := types.Point{X: req.X2, Y: req.Y2}
	duration := time.Duration(req.DurationMs) * time.Millisecond

	err = companion.Swipe(ctx, from, to, duration)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to swipe on device %s: %w", companion.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Swiped on device %s from (%g,%g) to (%g,%g)", companion.ID(), req.X1, req.Y1, req.X2, req.Y2),
	})
}
