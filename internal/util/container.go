package util

import (
	"os"
)

// IsContainer checks whether the process runs inside Docker or Podman container.
func IsContainer() bool {
	for _, path := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
