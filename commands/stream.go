package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mobile-next/idbtap/calibration"
	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

const DefaultStreamFPS = 5

// StreamRequest represents the parameters for a frame stream
type StreamRequest struct {
	DeviceID string `json:"deviceId"`
	FPS      int    `json:"fps,omitempty"`
	// DurationMs of 0 streams until the context is cancelled.
	DurationMs int    `json:"durationMs,omitempty"`
	OutputDir  string `json:"outputDir,omitempty"`
	Prefix     string `json:"prefix,omitempty"`

	OnFrame func(path string, frame *types.Frame) `json:"-"`
}

// StreamResponse represents the response for a stream command
type StreamResponse struct {
	Frames int      `json:"frames"`
	Paths  []string `json:"paths"`
}

// StreamCommand saves frames at up to FPS frames per second for the
// requested duration, naming them <prefix>_stream_<n><ext>.
func StreamCommand(ctx context.Context, req StreamRequest) *CommandResponse {
	if req.FPS == 0 {
		req.FPS = DefaultStreamFPS
	}
	if req.FPS < 0 {
		return NewErrorResponse(fmt.Errorf("fps must be positive, got %d", req.FPS))
	}
	if req.DurationMs < 0 {
		return NewErrorResponse(fmt.Errorf("duration must be non-negative, got %d", req.DurationMs))
	}

	cfg := CurrentConfig()
	outputDir := cfg.Calibration.OutputDir
	if req.OutputDir != "" {
		outputDir = req.OutputDir
	}
	prefix := cfg.Calibration.Prefix
	if req.Prefix != "" {
		prefix = req.Prefix
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	store := calibration.NewFileStore(outputDir)
	response := StreamResponse{Paths: []string{}}
	var saveErr error

	onFrame := func(frame *types.Frame) bool {
		name := fmt.Sprintf("%s_stream_%d%s", prefix, len(response.Paths), frame.Extension())
		path, err := store.Save(name, frame)
		if err != nil {
			saveErr = err
			return false
		}
		response.Paths = append(response.Paths, path)
		if req.OnFrame != nil {
			req.OnFrame(path, frame)
		}
		return true
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond
	utils.Verbose("Streaming frames from %s at %d fps", companion.ID(), req.FPS)

	_, err = devices.Stream(ctx, companion, req.FPS, duration, onFrame)
	response.Frames = len(response.Paths)
	if saveErr != nil {
		err = saveErr
	}
	if err != nil {
		result := NewErrorResponse(fmt.Errorf("stream failed after %d frames: %w", response.Frames, err))
		result.Data = response
		return result
	}

	return NewSuccessResponse(response)
}
