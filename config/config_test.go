package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mobile-next/idbtap/calibration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idbtap.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "grpc", cfg.Companion.Backend)
	assert.Equal(t, "localhost:10882", cfg.Companion.Address)
	assert.Equal(t, calibration.YAxisRaw, cfg.Calibration.YAxis)
	assert.Equal(t, calibration.DefaultTiming(), cfg.Calibration.Timing)
	assert.Equal(t, calibration.DefaultTargets(), cfg.Targets())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Full(t *testing.T) {
	path := writeConfig(t, `
[companion]
backend = grpc
address = 127.0.0.1:10900
udid    = 5A1E-SIM
spawn   = true
path    = /opt/idb/bin/idb_companion
call_timeout_ms = 2500

[calibration]
output_dir = frames
prefix     = ffi_calibration
y_axis     = inverted ; the older layout
screen_height = 844
y_offset   = 47
start_delay_ms = 0
press_ms   = 80
between_ms = 1000

[targets]
Target 1 (Top-left) = 88,236
Target 2 (Top-right) = 352,236

[server]
listen = 0.0.0.0:13000
cors = true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "127.0.0.1:10900", cfg.Companion.Address)
	assert.Equal(t, "5A1E-SIM", cfg.Companion.UDID)
	assert.True(t, cfg.Companion.Spawn)
	assert.Equal(t, "/opt/idb/bin/idb_companion", cfg.Companion.Path)
	assert.Equal(t, 2500*time.Millisecond, cfg.Companion.CallTimeout)

	assert.Equal(t, "frames", cfg.Calibration.OutputDir)
	assert.Equal(t, "ffi_calibration", cfg.Calibration.Prefix)
	assert.Equal(t, calibration.YAxisInverted, cfg.Calibration.YAxis)
	assert.Equal(t, time.Duration(0), cfg.Calibration.Timing.Start)
	assert.Equal(t, 80*time.Millisecond, cfg.Calibration.Timing.Press)
	assert.Equal(t, time.Second, cfg.Calibration.Timing.BetweenTargets)
	// untouched keys keep their defaults
	assert.Equal(t, 500*time.Millisecond, cfg.Calibration.Timing.CaptureSettle)

	assert.Equal(t, []calibration.Target{
		{X: 88, Y: 236, Label: "Target 1 (Top-left)"},
		{X: 352, Y: 236, Label: "Target 2 (Top-right)"},
	}, cfg.Calibration.Targets)

	// inverted: 844 - 236 + 47
	targets := cfg.Targets()
	assert.Equal(t, 655.0, targets[0].Y)
	assert.Equal(t, 88.0, targets[0].X)

	assert.Equal(t, "0.0.0.0:13000", cfg.Server.Listen)
	assert.True(t, cfg.Server.CORS)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := map[string]string{
		"bad backend":      "[companion]\nbackend = usb\n",
		"direct no udid":   "[companion]\nbackend = direct\n",
		"spawn no udid":    "[companion]\nspawn = yes\n",
		"bad bool":         "[companion]\nspawn = maybe\nudid = x\n",
		"bad axis":         "[calibration]\ny_axis = sideways\n",
		"negative delay":   "[calibration]\npress_ms = -5\n",
		"bad number":       "[calibration]\nscreen_height = tall\n",
		"bad target":       "[targets]\nleft = 88\n",
		"negative target":  "[targets]\nleft = -1,5\n",
		"empty prefix":     "[calibration]\nprefix =\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Resolution(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)

	homeFile := filepath.Join(home, FileName)
	require.NoError(t, os.WriteFile(homeFile, []byte("[companion]\naddress = home:1\n"), 0o600))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "home:1", cfg.Companion.Address)

	envFile := writeConfig(t, "[companion]\naddress = env:2\n")
	t.Setenv(EnvPath, envFile)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.Companion.Address)

	explicit := writeConfig(t, "[companion]\naddress = flag:3\n")
	cfg, err = Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, "flag:3", cfg.Companion.Address)

	_, err = Load(filepath.Join(home, "missing.ini"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cfg := Default()

	err := cfg.Apply(Overrides{Address: "localhost:9999", YAxis: "inverted", OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9999", cfg.Companion.Address)
	assert.Equal(t, calibration.YAxisInverted, cfg.Calibration.YAxis)
	assert.Equal(t, "out", cfg.Calibration.OutputDir)
	assert.Equal(t, "grpc", cfg.Companion.Backend)

	assert.Error(t, Default().Apply(Overrides{YAxis: "diagonal"}))
	assert.Error(t, Default().Apply(Overrides{Backend: "direct"}))
	assert.NoError(t, Default().Apply(Overrides{Backend: "direct", UDID: "SIM"}))
}
