package calibration

import "fmt"

// Step names the part of a calibration pass that failed.
type Step string

const (
	StepTouchDown Step = "touch-down"
	StepTouchUp   Step = "touch-up"
	StepCapture   Step = "capture"
	StepSave      Step = "save"
	StepWait      Step = "wait"
)

// StepError reports the first failure of a calibration pass. Index is the
// 1-based target ordinal, or the frame ordinal for the initial and final
// captures.
type StepError struct {
	Step  Step
	Index int
	Label string
	Err   error
}

func (e *StepError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s at step %d failed: %v", e.Step, e.Index, e.Err)
	}
	return fmt.Sprintf("%s at step %d (%s) failed: %v", e.Step, e.Index, e.Label, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
