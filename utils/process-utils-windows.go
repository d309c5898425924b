//go:build windows

package utils

import (
	"os/exec"
)

// ConfigureDetachedProcAttr does nothing on Windows; spawned companions are
// stopped through their context.
func ConfigureDetachedProcAttr(cmd *exec.Cmd) {}
