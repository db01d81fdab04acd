//go:build !unix

package speech

import "os/exec"

func startGroup(*exec.Cmd) {}

func killGroup(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
