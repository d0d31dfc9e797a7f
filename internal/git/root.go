// Package git provides the small set of git queries the engine needs.
package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// GetRoot returns the root directory of the git repository containing dir.
func GetRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is inside a git repository.
func IsRepo(dir string) bool {
	_, err := GetRoot(dir)
	return err == nil
}
