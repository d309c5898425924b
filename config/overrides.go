package config

import (
	"github.com/mobile-next/idbtap/calibration"
)

// Overrides carries command-line flags. Zero values leave the file's value
// in place.
type Overrides struct {
	Backend   string
	Address   string
	UDID      string
	Spawn     bool
	OutputDir string
	YAxis     string
	Prefix    string
}

// Apply merges flags over file values and revalidates.
func (c *Config) Apply(o Overrides) error {
	if o.Backend != "" {
		c.Companion.Backend = o.Backend
	}
	if o.Address != "" {
		c.Companion.Address = o.Address
	}
	if o.UDID != "" {
		c.Companion.UDID = o.UDID
	}
	if o.Spawn {
		c.Companion.Spawn = true
	}
	if o.OutputDir != "" {
		c.Calibration.OutputDir = o.OutputDir
	}
	if o.Prefix != "" {
		c.Calibration.Prefix = o.Prefix
	}
	if o.YAxis != "" {
		axis, err := calibration.ParseYAxis(o.YAxis)
		if err != nil {
			return err
		}
		c.Calibration.YAxis = axis
	}
	return c.Validate()
}
