// Package idb talks to idb_companion over its gRPC interface.
package idb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/devices/idb/idbpb"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const service = "/idb.CompanionService/"

var (
	hidStream = grpc.StreamDesc{
		StreamName:    "hid",
		ClientStreams: true,
	}
	launchStream = grpc.StreamDesc{
		StreamName:    "launch",
		ServerStreams: true,
		ClientStreams: true,
	}
)

// Options configures a companion connection.
type Options struct {
	Address string
	// UDID identifies the target for logs and the registry; the companion
	// itself is already bound to one target.
	UDID string
	// CallTimeout bounds every RPC; 0 leaves only the caller's context.
	CallTimeout time.Duration
	// Press is the Down to Up gap used by Tap.
	Press time.Duration
}

// Client is a Companion backed by idb_companion's gRPC service.
type Client struct {
	opts Options
	conn *grpc.ClientConn

	mu      sync.Mutex
	process *Process
	closed  bool
}

var _ devices.Companion = (*Client)(nil)

// Connect prepares a connection to the companion at opts.Address. The
// connection is established lazily; an unreachable companion surfaces as
// SimulatorNotRunning on the first call.
func Connect(opts Options) (*Client, error) {
	if opts.Address == "" {
		opts.Address = devices.DefaultAddress
	}
	if opts.Press <= 0 {
		opts.Press = devices.DefaultPress
	}

	conn, err := grpc.NewClient(
		opts.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(idbpb.Codec{})),
	)
	if err != nil {
		return nil, types.NewCompanionError(types.StatusInvalidParameter, 0, fmt.Sprintf("invalid companion address %s: %v", opts.Address, err))
	}

	utils.Verbose("Using idb_companion at %s", opts.Address)
	return &Client{opts: opts, conn: conn}, nil
}

// AttachProcess makes Close stop a companion this client spawned.
func (c *Client) AttachProcess(p *Process) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.process = p
}

func (c *Client) ID() string {
	if c.opts.UDID != "" {
		return c.opts.UDID
	}
	return c.opts.Address
}

func (c *Client) Backend() string { return devices.BackendGRPC }

// Address is the companion endpoint this client talks to.
func (c *Client) Address() string { return c.opts.Address }

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp idbpb.Message) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	utils.Verbose("grpc %s", method)
	return fromGRPC(c.conn.Invoke(ctx, service+method, req, resp))
}

// Close releases the connection and stops a spawned companion. Calling it
// twice is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing connection: %w", err))
	}
	if c.process != nil {
		if err := c.process.Stop(); err != nil {
			errs = append(errs, err)
		}
		c.process = nil
	}
	return errors.Join(errs...)
}

// drain reads a server stream to its end.
func drain(stream grpc.ClientStream, newMsg func() idbpb.Message) error {
	for {
		err := stream.RecvMsg(newMsg())
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
