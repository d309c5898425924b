package idb

import (
	"context"

	"github.com/mobile-next/idbtap/devices/idb/idbpb"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

// TakeScreenshot returns the encoded image exactly as the companion sent it.
// The gRPC response carries no dimensions, so Width and Height stay zero.
func (c *Client) TakeScreenshot(ctx context.Context) (*types.Frame, error) {
	var resp idbpb.ScreenshotResponse
	if err := c.invoke(ctx, "screenshot", &idbpb.ScreenshotRequest{}, &resp); err != nil {
		return nil, err
	}

	if len(resp.ImageData) == 0 {
		return nil, types.NewCompanionError(types.StatusOperationFailed, 0, "companion returned an empty screenshot")
	}

	utils.Verbose("screenshot: %d bytes, format %q", len(resp.ImageData), resp.ImageFormat)
	return &types.Frame{Data: resp.ImageData, Format: resp.ImageFormat}, nil
}
