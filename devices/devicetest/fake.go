// Package devicetest provides an in-memory companion for tests.
package devicetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mobile-next/idbtap/types"
)

// Call is one recorded companion call.
type Call struct {
	Method string
	X, Y   float64
	Arg    string
}

// Fake records every call. Failures are injected per method name through
// FailOn; the matching call returns the error and is not recorded.
type Fake struct {
	UDID     string
	Name     string
	Frame    *types.Frame
	Apps     []types.InstalledApp
	FailOn   map[string]error
	Closed   bool
	Captures int

	mu    sync.Mutex
	calls []Call
}

// New returns a fake with a small PNG-labelled frame.
func New(udid string) *Fake {
	return &Fake{
		UDID:   udid,
		Name:   "fake",
		Frame:  &types.Frame{Data: []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, Format: "png", Width: 1, Height: 1},
		FailOn: map[string]error{},
	}
}

func (f *Fake) ID() string      { return f.UDID }
func (f *Fake) Backend() string { return f.Name }

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailOn[c.Method]; ok {
		return err
	}
	f.calls = append(f.calls, c)
	return nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Methods returns the method names of the recorded calls in order.
func (f *Fake) Methods() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

func (f *Fake) TouchDown(ctx context.Context, x, y float64) error {
	return f.record(Call{Method: "TouchDown", X: x, Y: y})
}

func (f *Fake) TouchUp(ctx context.Context, x, y float64) error {
	return f.record(Call{Method: "TouchUp", X: x, Y: y})
}

func (f *Fake) Tap(ctx context.Context, x, y float64) error {
	return f.record(Call{Method: "Tap", X: x, Y: y})
}

func (f *Fake) Swipe(ctx context.Context, from, to types.Point, duration time.Duration) error {
	return f.record(Call{Method: "Swipe", X: to.X, Y: to.Y, Arg: fmt.Sprintf("%g,%g %s", from.X, from.Y, duration)})
}

func (f *Fake) TakeScreenshot(ctx context.Context) (*types.Frame, error) {
	if err := f.record(Call{Method: "TakeScreenshot"}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.Captures++
	f.mu.Unlock()
	frame := *f.Frame
	frame.Data = append([]byte(nil), f.Frame.Data...)
	return &frame, nil
}

func (f *Fake) ListApps(ctx context.Context) ([]types.InstalledApp, error) {
	if err := f.record(Call{Method: "ListApps"}); err != nil {
		return nil, err
	}
	return f.Apps, nil
}

func (f *Fake) LaunchApp(ctx context.Context, bundleID string) error {
	return f.record(Call{Method: "LaunchApp", Arg: bundleID})
}

func (f *Fake) TerminateApp(ctx context.Context, bundleID string) error {
	return f.record(Call{Method: "TerminateApp", Arg: bundleID})
}

func (f *Fake) InstallApp(ctx context.Context, path string) error {
	return f.record(Call{Method: "InstallApp", Arg: path})
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	if err, ok := f.FailOn["Close"]; ok {
		return err
	}
	return nil
}
