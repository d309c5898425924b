package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"
)

// BundleInfo holds the Info.plist keys idbtap cares about.
type BundleInfo struct {
	BundleID    string `plist:"CFBundleIdentifier" json:"bundleId"`
	Name        string `plist:"CFBundleName" json:"name,omitempty"`
	DisplayName string `plist:"CFBundleDisplayName" json:"displayName,omitempty"`
	Version     string `plist:"CFBundleShortVersionString" json:"version,omitempty"`
	Build       string `plist:"CFBundleVersion" json:"build,omitempty"`
}

// ReadBundleInfo decodes Info.plist from an .app directory or from a plist
// file given directly. XML and binary plists are both accepted.
func ReadBundleInfo(path string) (*BundleInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	plistPath := path
	if stat.IsDir() {
		plistPath = filepath.Join(path, "Info.plist")
	}

	data, err := os.ReadFile(plistPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", plistPath, err)
	}

	var info BundleInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", plistPath, err)
	}

	if info.BundleID == "" {
		return nil, fmt.Errorf("%s has no CFBundleIdentifier", plistPath)
	}

	return &info, nil
}
