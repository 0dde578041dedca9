// Package epub provides read access to the zip container of an EPUB file.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/utils"
)

// Archive is an opened EPUB container. Entries are addressed by their
// slash-separated name inside the zip.
type Archive struct {
	path    string
	closer  io.Closer
	zr      *zip.Reader
	entries map[string]*zip.File // exact name
	folded  map[string]*zip.File // lower-cased name, for case-variant references
}

// Open opens an EPUB file from a path.
func Open(filePath string) (*Archive, error) {
	rc, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive '%s': %w", filePath, err)
	}
	a := newArchive(filePath, &rc.Reader)
	a.closer = rc
	return a, nil
}

// OpenReader opens an EPUB from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return newArchive("", zr), nil
}

func newArchive(filePath string, zr *zip.Reader) *Archive {
	a := &Archive{
		path:    filePath,
		zr:      zr,
		entries: make(map[string]*zip.File, len(zr.File)),
		folded:  make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		a.entries[f.Name] = f
		lower := strings.ToLower(f.Name)
		if _, dup := a.folded[lower]; !dup {
			a.folded[lower] = f
		}
	}
	return a
}

// Path returns the file the archive was opened from ("" for readers)
func (a *Archive) Path() string {
	return a.path
}

// Close releases the underlying file
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Names lists every entry in archive order
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// lookup finds an entry by exact name, falling back to a case-insensitive
// match. References are URL-encoded, so a name that matches nothing is tried
// again percent-decoded.
func (a *Archive) lookup(name string) (*zip.File, bool) {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	if f, ok := a.find(name); ok {
		return f, true
	}
	if decoded := pathmap.Decode(name); decoded != name {
		return a.find(decoded)
	}
	return nil, false
}

func (a *Archive) find(name string) (*zip.File, bool) {
	if f, ok := a.entries[name]; ok {
		return f, true
	}
	f, ok := a.folded[strings.ToLower(name)]
	return f, ok
}

// Has reports whether an entry exists
func (a *Archive) Has(name string) bool {
	_, ok := a.lookup(name)
	return ok
}

// OpenEntry opens an entry for streaming.
// A missing entry yields an error matching models.ErrResourceNotFound.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	f, ok := a.lookup(name)
	if !ok {
		return nil, models.NotFoundErrorf("archive entry '%s'", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry '%s': %w", name, err)
	}
	return rc, nil
}

// ReadEntry reads a whole entry into memory.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	rc, err := a.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry '%s': %w", name, err)
	}
	return data, nil
}

// Unpack extracts every entry below dest, preserving the archive's directory layout.
// Entry names are confined to dest: leading slashes and ".." segments cannot climb out.
func (a *Archive) Unpack(dest string) error {
	if err := utils.CreateDirAll(dest); err != nil {
		return err
	}
	for _, f := range a.zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := utils.CreateDirAll(target); err != nil {
				return err
			}
			continue
		}
		if err := a.extract(f, target); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) extract(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry '%s': %w", f.Name, err)
	}
	defer rc.Close()
	return utils.WriteFrom(target, rc)
}

func safeJoin(root, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if clean == "/" {
		return "", fmt.Errorf("invalid archive entry name '%s'", name)
	}
	target := filepath.Join(root, filepath.FromSlash(clean[1:]))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry '%s' escapes destination", name)
	}
	return target, nil
}
