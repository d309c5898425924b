package commands

import (
	"context"
	"fmt"

	"github.com/mobile-next/idbtap/calibration"
	"github.com/mobile-next/idbtap/utils"
)

// CalibrateRequest represents the parameters for a calibration run
type CalibrateRequest struct {
	DeviceID string `json:"deviceId"`
	// Capture saves a frame before the first tap, after every tap and at
	// the end.
	Capture bool `json:"capture"`
	// Targets in declaration space; empty uses the configured list.
	Targets   []calibration.Target `json:"targets,omitempty"`
	OutputDir string               `json:"outputDir,omitempty"`
	Prefix    string               `json:"prefix,omitempty"`

	Observer calibration.Observer `json:"-"`
}

// CalibrateCommand taps every target in order, optionally capturing frames.
// On failure the response carries the partial report next to the error.
func CalibrateCommand(ctx context.Context, req CalibrateRequest) *CommandResponse {
	cfg := CurrentConfig()

	targets := cfg.Targets()
	if len(req.Targets) > 0 {
		targets = cfg.Convention().Apply(req.Targets)
	}
	if err := calibration.Validate(targets); err != nil {
		return NewErrorResponse(err)
	}

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
	opts := []calibration.Option{
		calibration.WithTiming(cfg.Calibration.Timing),
		calibration.WithPrefix(prefix),
		calibration.WithObserver(req.Observer),
	}
	if req.Capture {
		opts = append(opts, calibration.WithFrames(companion, store))
	}

	utils.Info("Calibrating %d targets on %s (y-axis %s)", len(targets), companion.ID(), cfg.Calibration.YAxis)
	report, err := calibration.NewSequencer(companion, opts...).Run(ctx, targets, req.Capture)

	if report != nil && req.Capture {
		if path, mErr := store.WriteManifest(report); mErr != nil {
			utils.Warn("Failed to write manifest: %v", mErr)
		} else {
			utils.Verbose("Manifest written to %s", path)
		}
	}

	if err != nil {
		response := NewErrorResponse(fmt.Errorf("calibration failed: %w", err))
		response.Data = report
		return response
	}

	return NewSuccessResponse(report)
}
