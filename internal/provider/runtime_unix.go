//go:build !windows

package provider

import "os/exec"

// FindRuntime looks the tool up in PATH.
func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		return "", NewRuntimeError(runtime, err)
	}

	return binPath, nil
}
