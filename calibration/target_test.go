package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()
	require.Len(t, targets, 5)
	assert.Equal(t, Target{X: 88, Y: 172, Label: "Target 1 (Top-left)"}, targets[0])
	assert.Equal(t, Target{X: 220, Y: 430, Label: "Target 3 (Center)"}, targets[2])
	assert.Equal(t, Target{X: 352, Y: 688, Label: "Target 5 (Bottom-right)"}, targets[4])
	assert.NoError(t, Validate(targets))
}

func TestConvention_Raw(t *testing.T) {
	targets := DefaultTargets()
	applied := RawConvention().Apply(targets)
	assert.Equal(t, targets, applied)
}

func TestConvention_Inverted(t *testing.T) {
	targets := DefaultTargets()
	applied := InvertedConvention(DefaultScreenHeight, DefaultYOffset).Apply(targets)

	require.Len(t, applied, len(targets))
	assert.Equal(t, 690.0, applied[0].Y)
	assert.Equal(t, 432.0, applied[2].Y)
	assert.Equal(t, 174.0, applied[4].Y)
	assert.Equal(t, targets[0].X, applied[0].X)

	// original list untouched
	assert.Equal(t, 172.0, targets[0].Y)
}

func TestParseYAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    YAxis
		wantErr bool
	}{
		{"", YAxisRaw, false},
		{"raw", YAxisRaw, false},
		{"Inverted", YAxisInverted, false},
		{" inverted ", YAxisInverted, false},
		{"flipped", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYAxis(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("corner", "12.5, 40")
	require.NoError(t, err)
	assert.Equal(t, Target{X: 12.5, Y: 40, Label: "corner"}, target)

	_, err = ParseTarget("bad", "12")
	assert.Error(t, err)

	_, err = ParseTarget("bad", "a,b")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]Target{{X: -1, Y: 5, Label: "neg"}}))
	assert.NoError(t, Validate([]Target{{X: 0, Y: 0, Label: "origin"}}))
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "Target 3 (Center) (220, 430)", DefaultTargets()[2].String())
}
