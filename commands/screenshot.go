package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	DeviceID   string `json:"deviceId"`
	OutputPath string `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
	// Format converts the frame to "png" or "jpeg"; empty keeps the
	// companion's bytes untouched.
	Format      string `json:"format,omitempty"`
	JpegQuality int    `json:"quality,omitempty"`
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Format   string `json:"format"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

// ScreenshotCommand captures one frame. Unless a Format is requested the
// bytes are stored exactly as the companion returned them.
func ScreenshotCommand(ctx context.Context, req ScreenshotRequest) *CommandResponse {
	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	frame, err := companion.TakeScreenshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error taking screenshot: %w", err))
	}

	if req.Format != "" && !strings.EqualFold(req.Format, frame.Format) {
		data, err := utils.ConvertImage(frame.Data, frame.Format, frame.Width, frame.Height, req.Format, req.JpegQuality)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("error converting screenshot: %w", err))
		}
		frame = &types.Frame{Data: data, Format: strings.ToLower(req.Format), Width: frame.Width, Height: frame.Height}
	}

	response := ScreenshotResponse{
		Format: frame.Format,
		Width:  frame.Width,
		Height: frame.Height,
	}

	if req.OutputPath == "-" {
		response.Data = base64.StdEncoding.EncodeToString(frame.Data)
		return NewSuccessResponse(response)
	}

	var finalPath string
	if req.OutputPath != "" {
		finalPath, err = filepath.Abs(req.OutputPath)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("invalid output path: %w", err))
		}
	} else {
		timestamp := time.Now().Format("20060102150405")
		safeDeviceID := strings.ReplaceAll(companion.ID(), ":", "_")
		fileName := fmt.Sprintf("screenshot-%s-%s%s", safeDeviceID, timestamp, frame.Extension())
		finalPath, err = filepath.Abs(filepath.Join(CurrentConfig().Calibration.OutputDir, fileName))
		if err != nil {
			return NewErrorResponse(fmt.Errorf("error creating default path: %w", err))
		}
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return NewErrorResponse(fmt.Errorf("error creating output directory: %w", err))
	}

	err = os.WriteFile(finalPath, frame.Data, 0o600)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error writing file: %w", err))
	}

	response.FilePath = finalPath
	return NewSuccessResponse(response)
}
