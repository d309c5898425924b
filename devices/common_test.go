package devices_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/devices/devicetest"
	"github.com/mobile-next/idbtap/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTapWithPress(t *testing.T) {
	fake := devicetest.New("sim-1")

	start := time.Now()
	err := devices.TapWithPress(context.Background(), fake, 220, 430, 20*time.Millisecond)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, []string{"TouchDown", "TouchUp"}, fake.Methods())
	calls := fake.Calls()
	assert.Equal(t, 220.0, calls[1].X)
	assert.Equal(t, 430.0, calls[1].Y)
}

func TestTapWithPress_DownFailureSkipsUp(t *testing.T) {
	fake := devicetest.New("sim-1")
	fake.FailOn["TouchDown"] = types.NewCompanionError(types.StatusOperationFailed, -5, "hid failed")

	err := devices.TapWithPress(context.Background(), fake, 1, 2, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrOperationFailed))
	assert.Empty(t, fake.Methods())
}

func TestValidateBackend(t *testing.T) {
	assert.NoError(t, devices.ValidateBackend("grpc"))
	assert.NoError(t, devices.ValidateBackend("direct"))
	assert.Error(t, devices.ValidateBackend("usb"))
}

func TestStream_PollsUntilCallbackStops(t *testing.T) {
	fake := devicetest.New("sim-1")

	var got []*types.Frame
	n, err := devices.Stream(context.Background(), fake, 100, 0, func(f *types.Frame) bool {
		got = append(got, f)
		return len(got) < 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, fake.Captures)
}

func TestStream_DurationEndsCleanly(t *testing.T) {
	fake := devicetest.New("sim-1")

	n, err := devices.Stream(context.Background(), fake, 50, 100*time.Millisecond, func(f *types.Frame) bool {
		return true
	})
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	assert.LessOrEqual(t, n, 10)
}

func TestStream_SourceErrorSurfaces(t *testing.T) {
	fake := devicetest.New("sim-1")
	fake.FailOn["TakeScreenshot"] = types.ErrSimulatorNotRunning

	_, err := devices.Stream(context.Background(), fake, 10, time.Second, func(f *types.Frame) bool { return true })
	assert.True(t, errors.Is(err, types.ErrSimulatorNotRunning))
}

func TestStream_RejectsZeroFPS(t *testing.T) {
	_, err := devices.Stream(context.Background(), devicetest.New("x"), 0, time.Second, func(f *types.Frame) bool { return true })
	assert.Error(t, err)
}

type nativeStreamer struct {
	*devicetest.Fake
	frames int
}

func (n *nativeStreamer) StreamFrames(ctx context.Context, fps int, onFrame func(*types.Frame) bool) error {
	for i := 0; i < n.frames; i++ {
		if !onFrame(&types.Frame{Data: []byte{byte(i)}, Format: "BGRA"}) {
			return nil
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStream_PrefersNativeStreamer(t *testing.T) {
	src := &nativeStreamer{Fake: devicetest.New("sim-1"), frames: 4}

	n, err := devices.Stream(context.Background(), src, 5, 50*time.Millisecond, func(f *types.Frame) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, src.Captures, "native streamer must not be polled")
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := devices.NewRegistry()
	a := devicetest.New("a")
	b := devicetest.New("b")
	b.FailOn["Close"] = errors.New("boom")

	reg.Register(a)
	reg.Register(b)
	assert.Equal(t, 2, reg.Len())

	err := reg.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, a.Closed)
	assert.True(t, b.Closed)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Release(t *testing.T) {
	reg := devices.NewRegistry()
	a := devicetest.New("a")
	reg.Register(a)
	reg.Release(a)

	require.NoError(t, reg.CloseAll())
	assert.False(t, a.Closed)
}
