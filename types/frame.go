package types

import (
	"strings"
)

// Point is a position in the companion's screen point space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is a single captured screen image exactly as the companion returned it.
// Width and Height are zero when the backend does not report dimensions.
type Frame struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// maxExtensionLen bounds extensions taken from the declared format.
const maxExtensionLen = 8

// Extension returns the file extension (with leading dot) matching the
// declared format of the frame. Formats that are not a short run of
// letters and digits map to .bin.
func (f *Frame) Extension() string {
	format := strings.ToLower(strings.TrimSpace(f.Format))
	switch format {
	case "png":
		return ".png"
	case "jpeg", "jpg":
		return ".jpg"
	}

	if format == "" || len(format) > maxExtensionLen {
		return ".bin"
	}
	for _, r := range format {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return "." + format
}

// InstalledApp describes an application installed on the target.
type InstalledApp struct {
	BundleID    string `json:"bundleId"`
	Name        string `json:"name,omitempty"`
	InstallType string `json:"installType,omitempty"`
	Running     bool   `json:"running,omitempty"`
	ProcessID   uint64 `json:"pid,omitempty"`
}
