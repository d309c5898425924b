package idb

import (
	"context"
	"io"
	"time"

	"github.com/mobile-next/idbtap/devices/idb/idbpb"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

// sendHID streams events on one hid call and waits for the reply.
func (c *Client) sendHID(ctx context.Context, events ...*idbpb.HIDEvent) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(ctx, &hidStream, service+hidStream.StreamName)
	if err != nil {
		return fromGRPC(err)
	}

	for _, event := range events {
		// io.EOF means the server already ended the call; RecvMsg has the status
		if err := stream.SendMsg(event); err != nil {
			if err == io.EOF {
				break
			}
			return fromGRPC(err)
		}
	}

	if err := stream.CloseSend(); err != nil {
		return fromGRPC(err)
	}

	return fromGRPC(stream.RecvMsg(&idbpb.HIDResponse{}))
}

func (c *Client) TouchDown(ctx context.Context, x, y float64) error {
	utils.Verbose("touch down at (%g, %g)", x, y)
	return c.sendHID(ctx, idbpb.TouchEvent(x, y, idbpb.HIDDown))
}

func (c *Client) TouchUp(ctx context.Context, x, y float64) error {
	utils.Verbose("touch up at (%g, %g)", x, y)
	return c.sendHID(ctx, idbpb.TouchEvent(x, y, idbpb.HIDUp))
}

// Tap sends Down, a press-length delay and Up on a single hid stream.
func (c *Client) Tap(ctx context.Context, x, y float64) error {
	utils.Verbose("tap at (%g, %g)", x, y)
	return c.sendHID(ctx,
		idbpb.TouchEvent(x, y, idbpb.HIDDown),
		&idbpb.HIDEvent{Delay: &idbpb.HIDDelay{Duration: c.opts.Press.Seconds()}},
		idbpb.TouchEvent(x, y, idbpb.HIDUp),
	)
}

func (c *Client) Swipe(ctx context.Context, from, to types.Point, duration time.Duration) error {
	utils.Verbose("swipe from (%g, %g) to (%g, %g) over %s", from.X, from.Y, to.X, to.Y, duration)
	return c.sendHID(ctx, &idbpb.HIDEvent{Swipe: &idbpb.HIDSwipe{
		Start:    idbpb.Point{X: from.X, Y: from.Y},
		End:      idbpb.Point{X: to.X, Y: to.Y},
		Duration: duration.Seconds(),
	}})
}
