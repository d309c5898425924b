package server

import (
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// GetMethodRegistry returns a map of method names to handler functions
// This is used by both the HTTP and the WebSocket endpoints
func GetMethodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"info":           handleInfo,
		"doctor":         handleDoctor,
		"screenshot":     handleScreenshot,
		"io_tap":         handleIoTap,
		"io_swipe":       handleIoSwipe,
		"calibrate":      handleCalibrate,
		"stream":         handleStream,
		"apps_list":      handleAppsList,
		"apps_launch":    handleAppsLaunch,
		"apps_terminate": handleAppsTerminate,
		"apps_install":   handleAppsInstall,
	}
}

func isLongRunning(method string) bool {
	return method == "calibrate" || method == "stream"
}

// Execute dispatches a method call using the registry
func Execute(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, exists := GetMethodRegistry()[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(ctx, params)
}
