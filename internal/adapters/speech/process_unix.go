//go:build unix

package speech

import (
	"os/exec"
	"syscall"
)

// startGroup runs the player in its own process group so killGroup also
// reaches the audio process it spawns.
func startGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
