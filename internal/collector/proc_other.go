//go:build !unix

package collector

import "os/exec"

// killProcessGroup is a no-op here; cmd.WaitDelay still bounds the wait.
func killProcessGroup(cmd *exec.Cmd) {}
