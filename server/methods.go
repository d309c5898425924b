package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mobile-next/idbtap/commands"
)

// maxStreamDurationMs caps streams started over the network.
const maxStreamDurationMs = 5 * 60 * 1000

// Version is reported by the doctor method.
var Version = "dev"

type DeviceParams struct {
	DeviceID string `json:"deviceId"`
}

type ScreenshotParams struct {
	DeviceID string `json:"deviceId"`
	Format   string `json:"format,omitempty"`
	Quality  int    `json:"quality,omitempty"`
}

type IoTapParams struct {
	DeviceID string   `json:"deviceId"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`

	SingleStream bool `json:"singleStream,omitempty"`
}

type IoSwipeParams struct {
	DeviceID   string   `json:"deviceId"`
	X1         *float64 `json:"x1"`
	Y1         *float64 `json:"y1"`
	X2         *float64 `json:"x2"`
	Y2         *float64 `json:"y2"`
	DurationMs int      `json:"durationMs"`
}

type AppParams struct {
	DeviceID string `json:"deviceId"`
	BundleID string `json:"bundleId"`
}

type InstallParams struct {
	DeviceID string `json:"deviceId"`
	Path     string `json:"path"`
}

// decodeParams unmarshals optional params; an absent params object leaves
// v at its zero value.
func decodeParams(params json.RawMessage, v interface{}, expected string) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %v. Expected fields: %s", err, expected)
	}
	return nil
}

func result(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}

func handleInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p DeviceParams
	if err := decodeParams(params, &p, "deviceId"); err != nil {
		return nil, err
	}
	return commands.InfoCommand(ctx, p.DeviceID)
}

func handleDoctor(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.DoctorCommand(Version))
}

func handleScreenshot(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p ScreenshotParams
	if err := decodeParams(params, &p, "deviceId, format, quality"); err != nil {
		return nil, err
	}

	response := commands.ScreenshotCommand(ctx, commands.ScreenshotRequest{
		DeviceID:    p.DeviceID,
		OutputPath:  "-", // always return base64 data for server
		Format:      p.Format,
		JpegQuality: p.Quality,
	})
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}

	if shot, ok := response.Data.(commands.ScreenshotResponse); ok {
		return map[string]interface{}{
			"format": shot.Format,
			"width":  shot.Width,
			"height": shot.Height,
			"data":   fmt.Sprintf("data:image/%s;base64,%s", shot.Format, shot.Data),
		}, nil
	}

	return nil, fmt.Errorf("unexpected response format")
}

func handleIoTap(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: deviceId, x, y")
	}

	var p IoTapParams
	if err := decodeParams(params, &p, "deviceId, x, y, singleStream"); err != nil {
		return nil, err
	}
	if p.X == nil || p.Y == nil {
		return nil, fmt.Errorf("'x' and 'y' are required")
	}

	response := commands.TapCommand(ctx, commands.TapRequest{
		DeviceID:     p.DeviceID,
		X:            *p.X,
		Y:            *p.Y,
		SingleStream: p.SingleStream,
	})
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return okResponse, nil
}

func handleIoSwipe(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: deviceId, x1, y1, x2, y2")
	}

	var p IoSwipeParams
	if err := decodeParams(params, &p, "deviceId, x1, y1, x2, y2"); err != nil {
		return nil, err
	}

	required := map[string]*float64{"x1": p.X1, "y1": p.Y1, "x2": p.X2, "y2": p.Y2}
	for _, field := range []string{"x1", "y1", "x2", "y2"} {
		if required[field] == nil {
			return nil, fmt.Errorf("'%s' is required", field)
		}
	}

	response := commands.SwipeCommand(ctx, commands.SwipeRequest{
		DeviceID:   p.DeviceID,
		X1:         *p.X1,
		Y1:         *p.Y1,
		X2:         *p.X2,
		Y2:         *p.Y2,
		DurationMs: p.DurationMs,
	})
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return okResponse, nil
}

func handleCalibrate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.CalibrateRequest
	if err := decodeParams(params, &req, "deviceId, capture, targets, outputDir, prefix"); err != nil {
		return nil, err
	}
	return result(commands.CalibrateCommand(ctx, req))
}

func handleStream(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.StreamRequest
	if err := decodeParams(params, &req, "deviceId, fps, durationMs, outputDir, prefix"); err != nil {
		return nil, err
	}

	// an unbounded stream would only end with the connection
	if req.DurationMs <= 0 || req.DurationMs > maxStreamDurationMs {
		return nil, fmt.Errorf("'durationMs' must be between 1 and %d", maxStreamDurationMs)
	}
	return result(commands.StreamCommand(ctx, req))
}

func handleAppsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p DeviceParams
	if err := decodeParams(params, &p, "deviceId"); err != nil {
		return nil, err
	}
	return result(commands.ListAppsCommand(ctx, commands.ListAppsRequest{DeviceID: p.DeviceID}))
}

func handleAppsLaunch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AppParams
	if err := decodeParams(params, &p, "deviceId, bundleId"); err != nil {
		return nil, err
	}
	return result(commands.LaunchAppCommand(ctx, commands.AppRequest{DeviceID: p.DeviceID, BundleID: p.BundleID}))
}

func handleAppsTerminate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AppParams
	if err := decodeParams(params, &p, "deviceId, bundleId"); err != nil {
		return nil, err
	}
	return result(commands.TerminateAppCommand(ctx, commands.AppRequest{DeviceID: p.DeviceID, BundleID: p.BundleID}))
}

func handleAppsInstall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p InstallParams
	if err := decodeParams(params, &p, "deviceId, path"); err != nil {
		return nil, err
	}
	return result(commands.InstallAppCommand(ctx, commands.InstallRequest{DeviceID: p.DeviceID, Path: p.Path}))
}
