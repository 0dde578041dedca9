package cli

import (
	"path/filepath"
	"strings"

	"github.com/geocine/epubweb/internal/epub"
)

// DefaultDir derives an output directory from the archive file name,
// e.g. DefaultDir("books/novel.epub", ".site") -> "novel.site".
func DefaultDir(epubPath, suffix string) string {
	base := filepath.Base(epubPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "book"
	}
	return stem + suffix
}

// Unpack extracts the raw archive to dest (default: the archive's stem) and
// returns the directory used.
func Unpack(epubPath, dest string) (string, error) {
	if dest == "" {
		dest = DefaultDir(epubPath, "")
	}

	archive, err := epub.Open(epubPath)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	if err := archive.Unpack(dest); err != nil {
		return "", err
	}
	return dest, nil
}
