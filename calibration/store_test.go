package calibration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobile-next/idbtap/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"Target 1 (Top-left)":     "Target_1_Top-left",
		"Target 5 (Bottom-right)": "Target_5_Bottom-right",
		"plain":                   "plain",
		"a/b:c":                   "a_b_c",
		"v1.2_x":                  "v1.2_x",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeLabel(in), in)
	}
}

func TestFrameName(t *testing.T) {
	assert.Equal(t, "calibration_0_initial.png", FrameName("calibration", 0, "initial", &types.Frame{Format: "png"}))
	assert.Equal(t, "run_3_after_x.jpg", FrameName("run", 3, "after_x", &types.Frame{Format: "jpeg"}))
	assert.Equal(t, "run_6_final.bin", FrameName("run", 6, "final", &types.Frame{}))
}

func TestFileStore_SaveIsByteIdentical(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	store := NewFileStore(dir)

	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i * 7)
	}

	path, err := store.Save("frame.png", &types.Frame{Data: data, Format: "png"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	read, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, read)
}

func TestFileStore_SaveNilFrame(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Save("x.png", nil)
	assert.Error(t, err)
}

func TestFileStore_SaveStaysInDir(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "frames"))
	frame := &types.Frame{Data: []byte("x"), Format: "png"}

	for _, name := range []string{"../escape.png", "a/b.png", "..", ""} {
		_, err := store.Save(name, frame)
		assert.Error(t, err, name)
	}

	// a hostile declared format cannot steer the name either
	name := FrameName("run", 1, "after", &types.Frame{Format: "png/../../x"})
	assert.Equal(t, "run_1_after.bin", name)
	path, err := store.Save(name, frame)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "frames"), filepath.Dir(path))
}

func TestNewFileStore_DefaultsToCurrentDir(t *testing.T) {
	assert.Equal(t, ".", NewFileStore("").Dir)
}

func TestFileStore_WriteManifest(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	report := &Report{
		RunID:   "run-1",
		Prefix:  "calibration",
		Targets: DefaultTargets()[:1],
		Events: []TapEvent{
			{Phase: PhaseDown, X: 88, Y: 172},
			{Phase: PhaseUp, X: 88, Y: 172},
		},
	}

	path, err := store.WriteManifest(report)
	require.NoError(t, err)
	assert.Equal(t, "calibration_manifest.json", filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded["runId"])

	events := decoded["events"].([]any)
	require.Len(t, events, 2)
	assert.Equal(t, "down", events[0].(map[string]any)["phase"])
	assert.Equal(t, "up", events[1].(map[string]any)["phase"])
}
