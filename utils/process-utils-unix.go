//go:build unix

package utils

import (
	"os/exec"
	"syscall"
)

// ConfigureDetachedProcAttr starts cmd in its own process group so a
// Ctrl-C aimed at idbtap does not reach a spawned idb_companion before
// idbtap has disconnected from it.
func ConfigureDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
