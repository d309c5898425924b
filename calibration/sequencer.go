package calibration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

// Phase is the touch phase of a TapEvent.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseUp
)

func (p Phase) String() string {
	if p == PhaseDown {
		return "down"
	}
	return "up"
}

// MarshalText keeps phases readable in manifests.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// TapEvent is one touch transition sent to the companion.
type TapEvent struct {
	Phase Phase   `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Injector accepts touch transitions at screen coordinates.
type Injector interface {
	TouchDown(ctx context.Context, x, y float64) error
	TouchUp(ctx context.Context, x, y float64) error
}

// FrameSource returns the current screen frame.
type FrameSource interface {
	TakeScreenshot(ctx context.Context) (*types.Frame, error)
}

// FrameSink persists a frame under name and returns where it was written.
type FrameSink interface {
	Save(name string, frame *types.Frame) (string, error)
}

// Timing holds the fixed delays of a calibration pass.
type Timing struct {
	Start          time.Duration `json:"start"`
	Press          time.Duration `json:"press"`
	CaptureSettle  time.Duration `json:"captureSettle"`
	BetweenTargets time.Duration `json:"betweenTargets"`
	FinalSettle    time.Duration `json:"finalSettle"`
}

// DefaultTiming mirrors the delays of a human tapping the calibration screen.
func DefaultTiming() Timing {
	return Timing{
		Start:          2 * time.Second,
		Press:          50 * time.Millisecond,
		CaptureSettle:  500 * time.Millisecond,
		BetweenTargets: 1500 * time.Millisecond,
		FinalSettle:    1 * time.Second,
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ProgressKind identifies a Progress notification.
type ProgressKind string

const (
	ProgressTapping ProgressKind = "tapping"
	ProgressTapped  ProgressKind = "tapped"
	ProgressFrame   ProgressKind = "frame"
	ProgressWaiting ProgressKind = "waiting"
)

// Progress is reported to an Observer as the sequence advances.
type Progress struct {
	Kind   ProgressKind
	Index  int // 1-based target ordinal, 0 for the initial frame
	Total  int
	Target Target
	Path   string
	Wait   time.Duration
}

// Observer receives progress notifications. It runs on the sequencer's
// goroutine and must not block for long.
type Observer func(Progress)

// DefaultPrefix is the file name prefix for captured frames.
const DefaultPrefix = "calibration"

// Sequencer visits targets in order, one request in flight at a time.
type Sequencer struct {
	injector Injector
	source   FrameSource
	sink     FrameSink
	timing   Timing
	prefix   string
	sleep    Sleeper
	observe  Observer
	now      func() time.Time
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithTiming(t Timing) Option {
	return func(s *Sequencer) { s.timing = t }
}

// WithFrames enables capture support by providing where frames come from and
// where they go.
func WithFrames(source FrameSource, sink FrameSink) Option {
	return func(s *Sequencer) {
		s.source = source
		s.sink = sink
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Sequencer) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithSleeper(sleep Sleeper) Option {
	return func(s *Sequencer) { s.sleep = sleep }
}

func WithObserver(o Observer) Option {
	return func(s *Sequencer) { s.observe = o }
}

// NewSequencer creates a sequencer that taps through injector.
func NewSequencer(injector Injector, opts ...Option) *Sequencer {
	s := &Sequencer{
		injector: injector,
		timing:   DefaultTiming(),
		prefix:   DefaultPrefix,
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CapturedFrame records one persisted frame of a run.
type CapturedFrame struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Format  string `json:"format"`
	Size    int    `json:"size"`
}

// Report summarises a calibration pass. On failure it holds everything that
// happened up to the failing step.
type Report struct {
	RunID      string          `json:"runId"`
	Prefix     string          `json:"prefix"`
	Capture    bool            `json:"capture"`
	Timing     Timing          `json:"timing"`
	Targets    []Target        `json:"targets"`
	Events     []TapEvent      `json:"events"`
	Frames     []CapturedFrame `json:"frames,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Error      string          `json:"error,omitempty"`
}

// Run performs one calibration pass over targets. With capture enabled it
// writes len(targets)+2 frames: one before the first tap, one after every tap
// and one after the last. The first failure aborts the pass.
func (s *Sequencer) Run(ctx context.Context, targets []Target, capture bool) (*Report, error) {
	if err := Validate(targets); err != nil {
		return nil, err
	}

	if capture && (s.source == nil || s.sink == nil) {
		return nil, fmt.Errorf("frame capture requested but no frame source or sink configured")
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Prefix:    s.prefix,
		Capture:   capture,
		Timing:    s.timing,
		Targets:   append([]Target(nil), targets...),
		StartedAt: s.now(),
	}

	err := s.run(ctx, report, targets, capture)
	report.FinishedAt = s.now()
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	utils.Verbose("calibration run %s finished: %d events, %d frames", report.RunID, len(report.Events), len(report.Frames))
	return report, nil
}

func (s *Sequencer) run(ctx context.Context, report *Report, targets []Target, capture bool) error {
	total := len(targets)

	if capture {
		if err := s.capture(ctx, report, 0, "initial", Target{Label: "initial"}, total); err != nil {
			return err
		}
	}

	if err := s.wait(ctx, s.timing.Start, 0, total); err != nil {
		return err
	}

	for i, target := range targets {
		index := i + 1

		if err := s.tap(ctx, report, index, total, target); err != nil {
			return err
		}

		if capture {
			if err := s.wait(ctx, s.timing.CaptureSettle, index, total); err != nil {
				return err
			}
			name := "after_" + SanitizeLabel(target.Label)
			if err := s.capture(ctx, report, index, name, target, total); err != nil {
				return err
			}
		}

		if index < total {
			if err := s.wait(ctx, s.timing.BetweenTargets, index, total); err != nil {
				return err
			}
		}
	}

	if capture {
		if err := s.wait(ctx, s.timing.FinalSettle, total, total); err != nil {
			return err
		}
		if err := s.capture(ctx, report, total+1, "final", Target{Label: "final"}, total); err != nil {
			return err
		}
	}

	return nil
}

func (s *Sequencer) tap(ctx context.Context, report *Report, index, total int, target Target) error {
	s.notify(Progress{Kind: ProgressTapping, Index: index, Total: total, Target: target})
	utils.Verbose("Tapping %s", target)

	if err := s.injector.TouchDown(ctx, target.X, target.Y); err != nil {
		return &StepError{Step: StepTouchDown, Index: index, Label: target.Label, Err: err}
	}
	report.Events = append(report.Events, TapEvent{Phase: PhaseDown, X: target.X, Y: target.Y})

	if err := s.sleep(ctx, s.timing.Press); err != nil {
		return &StepError{Step: StepWait, Index: index, Label: target.Label, Err: err}
	}

	if err := s.injector.TouchUp(ctx, target.X, target.Y); err != nil {
		return &StepError{Step: StepTouchUp, Index: index, Label: target.Label, Err: err}
	}
	report.Events = append(report.Events, TapEvent{Phase: PhaseUp, X: target.X, Y: target.Y})

	s.notify(Progress{Kind: ProgressTapped, Index: index, Total: total, Target: target})
	return nil
}

func (s *Sequencer) capture(ctx context.Context, report *Report, ordinal int, suffix string, target Target, total int) error {
	frame, err := s.source.TakeScreenshot(ctx)
	if err != nil {
		return &StepError{Step: StepCapture, Index: ordinal, Label: target.Label, Err: err}
	}

	name := FrameName(s.prefix, ordinal, suffix, frame)
	path, err := s.sink.Save(name, frame)
	if err != nil {
		return &StepError{Step: StepSave, Index: ordinal, Label: target.Label, Err: err}
	}

	report.Frames = append(report.Frames, CapturedFrame{
		Ordinal: ordinal,
		Name:    name,
		Path:    path,
		Format:  frame.Format,
		Size:    len(frame.Data),
	})

	utils.Verbose("Captured %s frame, %d bytes, saved to %s", frame.Format, len(frame.Data), path)
	s.notify(Progress{Kind: ProgressFrame, Index: ordinal, Total: total, Target: target, Path: path})
	return nil
}

func (s *Sequencer) wait(ctx context.Context, d time.Duration, index, total int) error {
	if d > 0 {
		s.notify(Progress{Kind: ProgressWaiting, Index: index, Total: total, Wait: d})
	}
	if err := s.sleep(ctx, d); err != nil {
		return &StepError{Step: StepWait, Index: index, Err: err}
	}
	return nil
}

func (s *Sequencer) notify(p Progress) {
	if s.observe != nil {
		s.observe(p)
	}
}
