package calibration

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a labelled point on the device screen. Targets are immutable once
// a sequence starts.
type Target struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%.0f, %.0f)", t.Label, t.X, t.Y)
}

// DefaultTargets is the five-point layout drawn by the calibration app, in the
// app's top-left-origin point space.
func DefaultTargets() []Target {
	return []Target{
		{X: 88, Y: 172, Label: "Target 1 (Top-left)"},
		{X: 352, Y: 172, Label: "Target 2 (Top-right)"},
		{X: 220, Y: 430, Label: "Target 3 (Center)"},
		{X: 88, Y: 688, Label: "Target 4 (Bottom-left)"},
		{X: 352, Y: 688, Label: "Target 5 (Bottom-right)"},
	}
}

// YAxis selects the vertical coordinate convention.
type YAxis string

const (
	// YAxisRaw passes declared coordinates through untouched.
	YAxisRaw YAxis = "raw"
	// YAxisInverted maps y to Height - y + Offset.
	YAxisInverted YAxis = "inverted"
)

const (
	DefaultScreenHeight = 800.0
	DefaultYOffset      = 62.0
)

// Convention converts declared target coordinates into the companion's
// coordinate space. Exactly one convention applies to a run.
type Convention struct {
	YAxis   YAxis
	Height  float64
	OffsetY float64
}

// RawConvention is the identity convention.
func RawConvention() Convention {
	return Convention{YAxis: YAxisRaw}
}

// InvertedConvention flips the vertical axis around the given screen height
// and shifts it by offset.
func InvertedConvention(height, offset float64) Convention {
	return Convention{YAxis: YAxisInverted, Height: height, OffsetY: offset}
}

// ParseYAxis validates a y-axis name. Empty selects raw.
func ParseYAxis(name string) (YAxis, error) {
	switch YAxis(strings.ToLower(strings.TrimSpace(name))) {
	case "", YAxisRaw:
		return YAxisRaw, nil
	case YAxisInverted:
		return YAxisInverted, nil
	default:
		return "", fmt.Errorf("invalid y-axis convention '%s', must be 'raw' or 'inverted'", name)
	}
}

// Apply returns a copy of targets converted into companion coordinates.
func (c Convention) Apply(targets []Target) []Target {
	out := make([]Target, len(targets))
	for i, t := range targets {
		if c.YAxis == YAxisInverted {
			t.Y = c.Height - t.Y + c.OffsetY
		}
		out[i] = t
	}
	return out
}

// ParseTarget parses "x,y" into a target with the given label.
func ParseTarget(label, value string) (Target, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return Target{}, fmt.Errorf("invalid target '%s'. Expected 'x,y', got '%s'", label, value)
	}

	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return Target{}, fmt.Errorf("invalid target '%s'. x and y must be numbers, got x='%s', y='%s'", label, parts[0], parts[1])
	}

	return Target{X: x, Y: y, Label: label}, nil
}

// Validate checks that a target list can be sequenced.
func Validate(targets []Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("at least one calibration target is required")
	}
	for i, t := range targets {
		if t.X < 0 || t.Y < 0 {
			return fmt.Errorf("target %d (%s) has negative coordinates (%g, %g)", i+1, t.Label, t.X, t.Y)
		}
	}
	return nil
}
