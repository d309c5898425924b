// Package config loads idbtap settings from an ini file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mobile-next/idbtap/calibration"
	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/utils"
	"gopkg.in/ini.v1"
)

const (
	// EnvPath names a config file when --config is not given.
	EnvPath = "IDBTAP_CONFIG"
	// FileName is looked up in the home directory as a last resort.
	FileName = ".idbtap.ini"

	DefaultServerAddress = "localhost:12000"
)

type Companion struct {
	Backend      string
	Address      string
	UDID         string
	Spawn        bool
	Path         string
	CallTimeout  time.Duration
	SharedMemory bool
	Logs         bool
}

type Calibration struct {
	OutputDir    string
	Prefix       string
	YAxis        calibration.YAxis
	ScreenHeight float64
	YOffset      float64
	Timing       calibration.Timing
	// Targets in declaration space; nil selects the built-in layout.
	Targets []calibration.Target
}

type Server struct {
	Listen string
	CORS   bool
}

type Config struct {
	// Path is the file the values came from, empty for defaults.
	Path        string
	Companion   Companion
	Calibration Calibration
	Server      Server
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Companion: Companion{
			Backend: devices.BackendGRPC,
			Address: devices.DefaultAddress,
			Path:    "idb_companion",
		},
		Calibration: Calibration{
			OutputDir:    ".",
			Prefix:       calibration.DefaultPrefix,
			YAxis:        calibration.YAxisRaw,
			ScreenHeight: calibration.DefaultScreenHeight,
			YOffset:      calibration.DefaultYOffset,
			Timing:       calibration.DefaultTiming(),
		},
		Server: Server{
			Listen: DefaultServerAddress,
		},
	}
}

// Resolve picks the config file: explicit path, then $IDBTAP_CONFIG, then
// ~/.idbtap.ini. It returns "" when none applies.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Load reads the file chosen by Resolve(explicit). A missing explicit or
// $IDBTAP_CONFIG file is an error; no file at all yields Default().
func Load(explicit string) (*Config, error) {
	path := Resolve(explicit)
	if path == "" {
		utils.Verbose("No config file found, using defaults")
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads one ini file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{KeyValueDelimiters: "="}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	cfg.Path = path

	if err := cfg.readCompanion(file.Section("companion")); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.readCalibration(file.Section("calibration")); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.readTargets(file.Section("targets")); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.readServer(file.Section("server")); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	utils.Verbose("Loaded config from %s", path)
	return cfg, nil
}

func (c *Config) readCompanion(sec *ini.Section) error {
	readString(sec, "backend", &c.Companion.Backend)
	readString(sec, "address", &c.Companion.Address)
	readString(sec, "udid", &c.Companion.UDID)
	readString(sec, "path", &c.Companion.Path)

	return errors.Join(
		readBool(sec, "spawn", &c.Companion.Spawn),
		readBool(sec, "shared_memory", &c.Companion.SharedMemory),
		readBool(sec, "logs", &c.Companion.Logs),
		readMillis(sec, "call_timeout_ms", &c.Companion.CallTimeout),
	)
}

func (c *Config) readCalibration(sec *ini.Section) error {
	readString(sec, "output_dir", &c.Calibration.OutputDir)
	readString(sec, "prefix", &c.Calibration.Prefix)

	var axis string
	readString(sec, "y_axis", &axis)
	parsed, axisErr := calibration.ParseYAxis(axis)
	if axisErr == nil {
		c.Calibration.YAxis = parsed
	}

	t := &c.Calibration.Timing
	return errors.Join(
		axisErr,
		readFloat(sec, "screen_height", &c.Calibration.ScreenHeight),
		readFloat(sec, "y_offset", &c.Calibration.YOffset),
		readMillis(sec, "start_delay_ms", &t.Start),
		readMillis(sec, "press_ms", &t.Press),
		readMillis(sec, "capture_settle_ms", &t.CaptureSettle),
		readMillis(sec, "between_ms", &t.BetweenTargets),
		readMillis(sec, "final_settle_ms", &t.FinalSettle),
	)
}

// readTargets keeps the file's key order, which is the tap order.
func (c *Config) readTargets(sec *ini.Section) error {
	keys := sec.Keys()
	if len(keys) == 0 {
		return nil
	}

	targets := make([]calibration.Target, 0, len(keys))
	for _, key := range keys {
		target, err := calibration.ParseTarget(key.Name(), key.String())
		if err != nil {
			return fmt.Errorf("[targets] %w", err)
		}
		targets = append(targets, target)
	}
	c.Calibration.Targets = targets
	return nil
}

func (c *Config) readServer(sec *ini.Section) error {
	readString(sec, "listen", &c.Server.Listen)
	return readBool(sec, "cors", &c.Server.CORS)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := devices.ValidateBackend(c.Companion.Backend); err != nil {
		return err
	}
	if c.Companion.Backend == devices.BackendDirect && c.Companion.UDID == "" {
		return fmt.Errorf("the direct backend needs a target udid")
	}
	if c.Companion.Spawn && c.Companion.UDID == "" {
		return fmt.Errorf("spawning idb_companion needs a target udid")
	}
	if c.Calibration.Prefix == "" {
		return fmt.Errorf("calibration prefix must not be empty")
	}
	if c.Calibration.Targets != nil {
		if err := calibration.Validate(c.Calibration.Targets); err != nil {
			return err
		}
	}
	return nil
}

// Convention returns the coordinate convention selected for this run.
func (c *Config) Convention() calibration.Convention {
	if c.Calibration.YAxis == calibration.YAxisInverted {
		return calibration.InvertedConvention(c.Calibration.ScreenHeight, c.Calibration.YOffset)
	}
	return calibration.RawConvention()
}

// Targets returns the configured target list (or the built-in layout) in
// companion coordinates.
func (c *Config) Targets() []calibration.Target {
	targets := c.Calibration.Targets
	if len(targets) == 0 {
		targets = calibration.DefaultTargets()
	}
	return c.Convention().Apply(targets)
}

func readString(sec *ini.Section, name string, dst *string) {
	if sec.HasKey(name) {
		*dst = sec.Key(name).String()
	}
}

func readBool(sec *ini.Section, name string, dst *bool) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return fmt.Errorf("[%s] %s: expected a boolean, got '%s'", sec.Name(), name, sec.Key(name).String())
	}
	*dst = v
	return nil
}

func readFloat(sec *ini.Section, name string, dst *float64) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		return fmt.Errorf("[%s] %s: expected a number, got '%s'", sec.Name(), name, sec.Key(name).String())
	}
	*dst = v
	return nil
}

func readMillis(sec *ini.Section, name string, dst *time.Duration) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Int64()
	if err != nil || v < 0 {
		return fmt.Errorf("[%s] %s: expected a non-negative number of milliseconds, got '%s'", sec.Name(), name, sec.Key(name).String())
	}
	*dst = time.Duration(v) * time.Millisecond
	return nil
}
