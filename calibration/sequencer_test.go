package calibration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mobile-next/idbtap/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	event TapEvent
	at    time.Time
}

type fakeInjector struct {
	mu     sync.Mutex
	calls  []recordedCall
	failOn int // 1-based call number that fails, 0 = never
	err    error
}

func (f *fakeInjector) record(phase Phase, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOn > 0 && len(f.calls)+1 == f.failOn {
		f.failOn = 0
		return f.err
	}
	f.calls = append(f.calls, recordedCall{event: TapEvent{Phase: phase, X: x, Y: y}, at: time.Now()})
	return nil
}

func (f *fakeInjector) TouchDown(ctx context.Context, x, y float64) error {
	return f.record(PhaseDown, x, y)
}

func (f *fakeInjector) TouchUp(ctx context.Context, x, y float64) error {
	return f.record(PhaseUp, x, y)
}

func (f *fakeInjector) events() []TapEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TapEvent, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.event
	}
	return out
}

type fakeSource struct {
	count int
	err   error
}

func (f *fakeSource) TakeScreenshot(ctx context.Context) (*types.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.count++
	// bytes that would not survive any re-encoding
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, byte(f.count)}
	return &types.Frame{Data: data, Format: "png"}, nil
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return ctx.Err()
}

func newTestSequencer(inj Injector, rec *sleepRecorder, opts ...Option) *Sequencer {
	opts = append([]Option{WithSleeper(rec.sleep)}, opts...)
	return NewSequencer(inj, opts...)
}

func TestRun_TwoTargetsWithoutCapture(t *testing.T) {
	inj := &fakeInjector{}
	rec := &sleepRecorder{}
	seq := newTestSequencer(inj, rec)

	targets := []Target{
		{X: 88, Y: 236, Label: "left"},
		{X: 352, Y: 236, Label: "right"},
	}

	report, err := seq.Run(context.Background(), targets, false)
	require.NoError(t, err)

	expected := []TapEvent{
		{Phase: PhaseDown, X: 88, Y: 236},
		{Phase: PhaseUp, X: 88, Y: 236},
		{Phase: PhaseDown, X: 352, Y: 236},
		{Phase: PhaseUp, X: 352, Y: 236},
	}
	assert.Equal(t, expected, inj.events())
	assert.Equal(t, expected, report.Events)
	assert.Empty(t, report.Frames)
	assert.Empty(t, report.Error)
	assert.NotEmpty(t, report.RunID)
}

func TestRun_StrictAlternationInListOrder(t *testing.T) {
	for n := 1; n <= 7; n++ {
		inj := &fakeInjector{}
		seq := newTestSequencer(inj, &sleepRecorder{})

		targets := make([]Target, n)
		for i := range targets {
			targets[i] = Target{X: float64(10 * i), Y: float64(20 * i), Label: "t"}
		}

		_, err := seq.Run(context.Background(), targets, false)
		require.NoError(t, err)

		events := inj.events()
		require.Len(t, events, 2*n)
		for i, e := range events {
			target := targets[i/2]
			if i%2 == 0 {
				assert.Equal(t, PhaseDown, e.Phase)
			} else {
				assert.Equal(t, PhaseUp, e.Phase)
			}
			assert.Equal(t, target.X, e.X)
			assert.Equal(t, target.Y, e.Y)
		}
	}
}

func TestRun_DelayOrderWithoutCapture(t *testing.T) {
	rec := &sleepRecorder{}
	timing := Timing{
		Start:          2 * time.Second,
		Press:          50 * time.Millisecond,
		CaptureSettle:  500 * time.Millisecond,
		BetweenTargets: 1500 * time.Millisecond,
		FinalSettle:    time.Second,
	}
	seq := newTestSequencer(&fakeInjector{}, rec, WithTiming(timing))

	_, err := seq.Run(context.Background(), DefaultTargets()[:3], false)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		2 * time.Second,
		50 * time.Millisecond, 1500 * time.Millisecond,
		50 * time.Millisecond, 1500 * time.Millisecond,
		50 * time.Millisecond,
	}, rec.durations)
}

func TestRun_PressDurationWallClock(t *testing.T) {
	inj := &fakeInjector{}
	press := 30 * time.Millisecond
	seq := NewSequencer(inj, WithTiming(Timing{Press: press}))

	_, err := seq.Run(context.Background(), DefaultTargets()[:2], false)
	require.NoError(t, err)

	require.Len(t, inj.calls, 4)
	for i := 0; i < len(inj.calls); i += 2 {
		gap := inj.calls[i+1].at.Sub(inj.calls[i].at)
		assert.GreaterOrEqual(t, gap, press)
		assert.Less(t, gap, press+250*time.Millisecond, "press gap should stay close to the configured delay")
	}
}

func TestRun_CaptureWritesNPlusTwoFrames(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{}
	seq := newTestSequencer(&fakeInjector{}, &sleepRecorder{}, WithFrames(source, NewFileStore(dir)))

	targets := DefaultTargets()
	report, err := seq.Run(context.Background(), targets, true)
	require.NoError(t, err)

	require.Len(t, report.Frames, len(targets)+2)
	assert.Equal(t, len(targets)+2, source.count)

	names := make([]string, len(report.Frames))
	for i, f := range report.Frames {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"calibration_0_initial.png",
		"calibration_1_after_Target_1_Top-left.png",
		"calibration_2_after_Target_2_Top-right.png",
		"calibration_3_after_Target_3_Center.png",
		"calibration_4_after_Target_4_Bottom-left.png",
		"calibration_5_after_Target_5_Bottom-right.png",
		"calibration_6_final.png",
	}, names)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(targets)+2)
}

func TestRun_CapturedFrameRoundTripIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{}
	seq := newTestSequencer(&fakeInjector{}, &sleepRecorder{}, WithFrames(source, NewFileStore(dir)), WithPrefix("ffi_calibration"))

	report, err := seq.Run(context.Background(), []Target{{X: 1, Y: 2, Label: "only"}}, true)
	require.NoError(t, err)
	require.Len(t, report.Frames, 3)

	for i, f := range report.Frames {
		data, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		expected := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, byte(i + 1)}
		assert.True(t, bytes.Equal(expected, data), "frame %s altered on disk", f.Name)
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
	}
	assert.Equal(t, "ffi_calibration_1_after_only.png", report.Frames[1].Name)
}

func TestRun_DownFailureStopsBeforeUp(t *testing.T) {
	failure := types.NewCompanionError(types.StatusOperationFailed, -5, "touch rejected")
	inj := &fakeInjector{failOn: 1, err: failure}
	seq := newTestSequencer(inj, &sleepRecorder{})

	report, err := seq.Run(context.Background(), []Target{{X: 10, Y: 10, Label: "solo"}}, false)
	require.Error(t, err)

	assert.Empty(t, inj.events(), "no Up may follow a failed Down")
	assert.True(t, errors.Is(err, types.ErrOperationFailed))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepTouchDown, stepErr.Step)
	assert.Equal(t, 1, stepErr.Index)
	assert.Contains(t, err.Error(), "touch-down at step 1 (solo)")
	assert.Equal(t, err.Error(), report.Error)
}

func TestRun_FailureOnTargetKStopsRemainingTargets(t *testing.T) {
	targets := DefaultTargets()
	for k := 1; k <= len(targets); k++ {
		// fail the Up of target k: calls are Down1 Up1 Down2 Up2 ...
		inj := &fakeInjector{failOn: 2 * k, err: types.ErrTimeout}
		seq := newTestSequencer(inj, &sleepRecorder{})

		_, err := seq.Run(context.Background(), targets, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrTimeout))

		events := inj.events()
		require.Len(t, events, 2*k-1)
		for i, e := range events {
			owner := targets[i/2]
			assert.Less(t, i/2, k)
			assert.Equal(t, owner.X, e.X)
			assert.Equal(t, owner.Y, e.Y)
		}
	}
}

func TestRun_CaptureFailureAborts(t *testing.T) {
	source := &fakeSource{err: types.ErrSimulatorNotRunning}
	inj := &fakeInjector{}
	seq := newTestSequencer(inj, &sleepRecorder{}, WithFrames(source, NewFileStore(t.TempDir())))

	_, err := seq.Run(context.Background(), DefaultTargets(), true)
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepCapture, stepErr.Step)
	assert.Equal(t, 0, stepErr.Index)
	assert.Empty(t, inj.events(), "initial capture failure happens before any tap")
}

func TestRun_CaptureWithoutSinkRejected(t *testing.T) {
	seq := newTestSequencer(&fakeInjector{}, &sleepRecorder{})
	_, err := seq.Run(context.Background(), DefaultTargets(), true)
	assert.Error(t, err)
}

func TestRun_EmptyTargetsRejected(t *testing.T) {
	inj := &fakeInjector{}
	seq := newTestSequencer(inj, &sleepRecorder{})

	_, err := seq.Run(context.Background(), nil, false)
	assert.Error(t, err)
	assert.Empty(t, inj.events())
}

func TestRun_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inj := &fakeInjector{}
	seq := NewSequencer(inj, WithTiming(Timing{Start: time.Hour}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := seq.Run(ctx, DefaultTargets(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, inj.events())
}

func TestRun_ObserverSeesEveryTap(t *testing.T) {
	var tapped []int
	observer := func(p Progress) {
		if p.Kind == ProgressTapped {
			tapped = append(tapped, p.Index)
		}
	}
	seq := newTestSequencer(&fakeInjector{}, &sleepRecorder{}, WithObserver(observer))

	_, err := seq.Run(context.Background(), DefaultTargets(), false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, tapped)
}
