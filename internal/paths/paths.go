// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ResolveDataDir normalizes the configured data directory.
//
//   - "~/x" -> "$HOME/x"
//   - "" -> "./.buddy"
//   - a directory holding a redirect file resolves to the directory it names,
//     relative to the redirecting directory, so several checkouts can share
//     one session database.
func ResolveDataDir(path string) string {
	if path == "" {
		path = ".buddy"
	}
	return followRedirect(filepath.Clean(ExpandHome(path)))
}

func followRedirect(dir string) string {
	content, err := os.ReadFile(filepath.Join(dir, "redirect")) //nolint:gosec // redirect file lives inside the data dir
	if err != nil {
		return dir
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return dir
	}
	target = ExpandHome(target)
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(dir, target))
}
