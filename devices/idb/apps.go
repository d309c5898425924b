package idb

import (
	"context"
	"io"

	"github.com/mobile-next/idbtap/devices/idb/idbpb"
	"github.com/mobile-next/idbtap/types"
)

func (c *Client) ListApps(ctx context.Context) ([]types.InstalledApp, error) {
	var resp idbpb.ListAppsResponse
	if err := c.invoke(ctx, "list_apps", &idbpb.ListAppsRequest{}, &resp); err != nil {
		return nil, err
	}

	apps := make([]types.InstalledApp, 0, len(resp.Apps))
	for _, app := range resp.Apps {
		apps = append(apps, types.InstalledApp{
			BundleID:    app.BundleID,
			Name:        app.Name,
			InstallType: app.InstallType,
			Running:     app.ProcessState == idbpb.ProcessStateRunning,
			ProcessID:   app.ProcessIdentifier,
		})
	}
	return apps, nil
}

func (c *Client) TerminateApp(ctx context.Context, bundleID string) error {
	if bundleID == "" {
		return types.NewCompanionError(types.StatusInvalidParameter, 0, "bundle id is required")
	}
	return c.invoke(ctx, "terminate", &idbpb.TerminateRequest{BundleID: bundleID}, &idbpb.TerminateResponse{})
}

// LaunchApp sends a single Start, half-closes the stream and drains the
// replies until the companion ends the call.
func (c *Client) LaunchApp(ctx context.Context, bundleID string) error {
	if bundleID == "" {
		return types.NewCompanionError(types.StatusInvalidParameter, 0, "bundle id is required")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(ctx, &launchStream, service+launchStream.StreamName)
	if err != nil {
		return fromGRPC(err)
	}

	start := &idbpb.LaunchRequest{Start: &idbpb.LaunchStart{
		BundleID:            bundleID,
		ForegroundIfRunning: true,
	}}
	if err := stream.SendMsg(start); err != nil && err != io.EOF {
		return fromGRPC(err)
	}
	if err := stream.CloseSend(); err != nil {
		return fromGRPC(err)
	}

	return fromGRPC(drain(stream, func() idbpb.Message { return &idbpb.LaunchResponse{} }))
}

// InstallApp is not offered over this transport.
func (c *Client) InstallApp(ctx context.Context, path string) error {
	return types.NewCompanionError(types.StatusNotSupported, 0, "install is only available with the direct backend")
}
