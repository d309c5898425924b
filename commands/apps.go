package commands

import (
	"context"
	"fmt"

	"github.com/mobile-next/idbtap/utils"
)

// AppRequest represents the parameters for app-related commands
type AppRequest struct {
	DeviceID string `json:"deviceId"`
	BundleID string `json:"bundleId"`
}

// InstallRequest represents the parameters for installing an app bundle
type InstallRequest struct {
	DeviceID string `json:"deviceId"`
	Path     string `json:"path"`
}

// ListAppsRequest represents the parameters for listing installed apps
type ListAppsRequest struct {
	DeviceID string `json:"deviceId"`
}

// ListAppsCommand lists the applications installed on the target
func ListAppsCommand(ctx context.Context, req ListAppsRequest) *CommandResponse {
	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	apps, err := companion.ListApps(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to list apps on device %s: %w", companion.ID(), err))
	}

	return NewSuccessResponse(apps)
}

// LaunchAppCommand launches an app on the specified device
func LaunchAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.BundleID == "" {
		return NewErrorResponse(fmt.Errorf("bundle ID is required"))
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	err = companion.LaunchApp(ctx, req.BundleID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to launch app on device %s: %w", companion.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Launched app '%s' on device %s", req.BundleID, companion.ID()),
	})
}

// TerminateAppCommand terminates an app on the specified device
func TerminateAppCommand(ctx context.Context, req AppRequest) *CommandResponse {
	if req.BundleID == "" {
		return NewErrorResponse(fmt.Errorf("bundle ID is required"))
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	err = companion.TerminateApp(ctx, req.BundleID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to terminate app on device %s: %w", companion.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Terminated app '%s' on device %s", req.BundleID, companion.ID()),
	})
}

// InstallAppCommand installs an .app bundle. The bundle id is read from its
// Info.plist first so a broken bundle fails before reaching the companion.
func InstallAppCommand(ctx context.Context, req InstallRequest) *CommandResponse {
	if req.Path == "" {
		return NewErrorResponse(fmt.Errorf("app path is required"))
	}

	info, err := utils.ReadBundleInfo(req.Path)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("invalid app bundle: %w", err))
	}

	companion, release, err := FindCompanion(ctx, req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %w", err))
	}
	defer release()

	err = companion.InstallApp(ctx, req.Path)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to install %s on device %s: %w", info.BundleID, companion.ID(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Installed app '%s' on device %s", info.BundleID, companion.ID()),
		"app":     info,
	})
}
