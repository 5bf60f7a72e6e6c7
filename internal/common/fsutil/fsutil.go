package fsutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// DirExists reports whether path names an existing directory.
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ErrBinaryNotFound is returned by ResolveBinary when nothing matches.
var ErrBinaryNotFound = errors.New("binary not found")

// ResolveBinary returns an executable path for name. An explicit path (one
// containing a separator) must exist as a file; a bare name is looked up on
// PATH.
func ResolveBinary(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBinaryNotFound
	}
	if strings.ContainsRune(name, filepath.Separator) {
		p, err := ExpandHome(name)
		if err != nil {
			return "", err
		}
		if !FileExists(p) {
			return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, p)
		}
		return p, nil
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in PATH", ErrBinaryNotFound, name)
	}
	return p, nil
}
