package utils

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WriteFile writes content to a file, creating parent directories if needed
func WriteFile(path string, content []byte) error {
	if parent := filepath.Dir(path); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", parent, err)
		}
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}

	return nil
}

// WriteFrom streams r into a new file at path, creating parent directories if needed
func WriteFrom(path string, r io.Reader) error {
	if parent := filepath.Dir(path); parent != "." {
		if err := CreateDirAll(parent); err != nil {
			return err
		}
	}

	destination, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}

	if _, err := io.Copy(destination, r); err != nil {
		destination.Close()
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := destination.Close(); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}

	return nil
}

// CreateDirAll creates a directory with better error messages
func CreateDirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", path, err)
	}
	return nil
}

// RemoveAll removes a file or directory tree with error context
func RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove '%s': %w", path, err)
	}
	return nil
}

// ResetDir destroys any existing tree at path and recreates it empty
func ResetDir(path string) error {
	if err := RemoveAll(path); err != nil {
		return err
	}
	return CreateDirAll(path)
}

// DirExists checks if a directory exists
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirUsage counts files, subdirectories and bytes below dir
func DirUsage(dir string) (files, dirs int, bytes int64) {
	filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if p != dir {
				dirs++
			}
			return nil
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, dirs, bytes
}

// HumanBytes formats a byte count with binary units
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	val := float64(n) / float64(div)
	suffix := []string{"KiB", "MiB", "GiB", "TiB"}
	if exp >= len(suffix) {
		return fmt.Sprintf("%.1f PiB", val/float64(unit))
	}
	return fmt.Sprintf("%.1f %s", val, suffix[exp])
}

// RelPath returns the forward-slash path of target relative to fromDir.
// Both arguments are slash-separated paths below the same root; fromDir "" is the root.
// E.g., RelPath("documents", "assets/a.png") -> "../assets/a.png"
func RelPath(fromDir, target string) string {
	from := cleanSlash(fromDir)
	to := cleanSlash(target)

	rel, err := filepath.Rel(filepath.FromSlash(from), filepath.FromSlash(to))
	if err != nil {
		return to
	}
	return filepath.ToSlash(rel)
}

// HrefTo returns a URL-escaped relative link from fromDir to target,
// suitable for an href or src attribute.
func HrefTo(fromDir, target string) string {
	rel := RelPath(fromDir, target)
	escaped := (&url.URL{Path: rel}).EscapedPath()
	// a colon in the first segment would read as a scheme
	if first, _, _ := strings.Cut(escaped, "/"); strings.Contains(first, ":") {
		escaped = "./" + escaped
	}
	return escaped
}

// SlashDir is path.Dir for slash paths, returning "" instead of "."
func SlashDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func cleanSlash(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "."
	}
	return p
}
