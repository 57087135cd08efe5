package handlers

import (
	"fmt"
	"os/exec"

	"mediabox/internal/stage"
)

// binaryHealth reports whether a handler's external binary resolves.
func binaryHealth(name, binary string) stage.Health {
	if binary == "" {
		return stage.Unhealthy(name, "binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("binary %q not found", binary))
	}
	return stage.Healthy(name)
}
