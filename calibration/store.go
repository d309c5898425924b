package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mobile-next/idbtap/types"
)

// SanitizeLabel turns a target label into a file-name fragment: spaces become
// underscores, parentheses are dropped and anything else outside
// [A-Za-z0-9._-] becomes an underscore.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r == '(' || r == ')':
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FrameName derives the file name of a captured frame from its step ordinal.
func FrameName(prefix string, ordinal int, suffix string, frame *types.Frame) string {
	return fmt.Sprintf("%s_%d_%s%s", prefix, ordinal, suffix, frame.Extension())
}

// FileStore writes frames into a directory without altering their bytes.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir ("." when empty).
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{Dir: dir}
}

// Save writes frame.Data to Dir/name and returns the absolute path.
func (s *FileStore) Save(name string, frame *types.Frame) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame to save for %s", name)
	}
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid frame file name '%s'", name)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	finalPath, err := filepath.Abs(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	if err := os.WriteFile(finalPath, frame.Data, 0o600); err != nil {
		return "", fmt.Errorf("error writing file: %w", err)
	}

	return finalPath, nil
}

// WriteManifest stores the run report next to its frames.
func (s *FileStore) WriteManifest(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	name := fmt.Sprintf("%s_manifest.json", report.Prefix)
	return s.Save(name, &types.Frame{Data: data, Format: "json"})
}
