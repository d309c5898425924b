package commands

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/devices/idbdirect"
	"github.com/mobile-next/idbtap/utils"
)

type DoctorInfo struct {
	IdbtapVersion           string `json:"idbtap_version"`
	OS                      string `json:"os"`
	OSVersion               string `json:"os_version"`
	XcodePath               string `json:"xcode_path,omitempty"`
	XcodeCLIToolsPath       string `json:"xcode_cli_tools_path,omitempty"`
	DevToolsSecurityEnabled *bool  `json:"devtools_security_enabled,omitempty"`
	ConfigPath              string `json:"config_path,omitempty"`
	Backend                 string `json:"backend"`
	CompanionAddress        string `json:"companion_address,omitempty"`
	CompanionReachable      *bool  `json:"companion_reachable,omitempty"`
	CompanionPath           string `json:"companion_path"`
	DirectAvailable         bool   `json:"direct_available"`
	DirectVersion           string `json:"direct_version,omitempty"`
}

// companionProbeTimeout bounds the TCP probe of a running companion.
const companionProbeTimeout = 2 * time.Second

func getCompanionPath(name string) string {
	if name == "" {
		name = "idb_companion"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

func getXcodePath() string {
	if runtime.GOOS != "darwin" {
		return ""
	}

	// check if Xcode.app is installed
	cmd := exec.Command("xcode-select", "-p")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	path := strings.TrimSpace(string(output))

	// check if this is the full Xcode.app path
	if strings.Contains(path, "Xcode.app") {
		return path
	}

	return ""
}

func getXcodeCLIToolsPath() string {
	if runtime.GOOS != "darwin" {
		return ""
	}

	cmd := exec.Command("xcode-select", "-p")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	path := strings.TrimSpace(string(output))

	// verify the path exists
	if _, err := os.Stat(path); err == nil {
		return path
	}

	return ""
}

func getDevToolsSecurityEnabled() *bool {
	if runtime.GOOS != "darwin" {
		return nil
	}

	cmd := exec.Command("DevToolsSecurity", "-status")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return nil
	}

	outputStr := strings.TrimSpace(string(output))
	// the output is typically "Developer mode is currently enabled." or "Developer mode is currently disabled."
	enabled := strings.Contains(strings.ToLower(outputStr), "enabled")

	return &enabled
}

func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.Command("sw_vers", "-productVersion")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "windows":
		cmd := exec.Command("cmd", "/c", "ver")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "linux":
		// try reading /etc/os-release
		data, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
			}
		}
		return ""
	default:
		return ""
	}
}

// DoctorCommand performs system diagnostics and returns information about the environment
func DoctorCommand(version string) *CommandResponse {
	cfg := CurrentConfig()

	info := DoctorInfo{
		IdbtapVersion:   version,
		OS:              runtime.GOOS,
		OSVersion:       getOSVersion(),
		ConfigPath:      cfg.Path,
		Backend:         cfg.Companion.Backend,
		CompanionPath:   getCompanionPath(cfg.Companion.Path),
		DirectAvailable: idbdirect.Available(),
		DirectVersion:   idbdirect.Version(),
	}

	// a spawned companion picks its own port, nothing to probe yet
	if cfg.Companion.Backend == devices.BackendGRPC && !cfg.Companion.Spawn {
		reachable := utils.IsReachable(cfg.Companion.Address, companionProbeTimeout)
		info.CompanionAddress = cfg.Companion.Address
		info.CompanionReachable = &reachable
	}

	// only get Xcode path on darwin
	if runtime.GOOS == "darwin" {
		info.XcodePath = getXcodePath()
		info.XcodeCLIToolsPath = getXcodeCLIToolsPath()
		info.DevToolsSecurityEnabled = getDevToolsSecurityEnabled()
	}

	return NewSuccessResponse(info)
}
