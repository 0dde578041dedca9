package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geocine/epubweb/internal/epub"
	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/parser"
	"go.uber.org/zap"
)

// MimeType is the expected content of the archive's mimetype entry
const MimeType = "application/epub+zip"

// LoadedBook is a parsed package bound to the archive it came from.
// Close releases the archive.
type LoadedBook struct {
	Book    *models.Book
	Archive *epub.Archive
}

// Close releases the underlying archive
func (lb *LoadedBook) Close() error {
	return lb.Archive.Close()
}

// BookLoader handles loading books from an archive on disk
type BookLoader struct {
	path string
	log  *zap.Logger
}

// NewBookLoader creates a new book loader
func NewBookLoader(path string, log *zap.Logger) *BookLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookLoader{path: path, log: log}
}

// Load opens the archive, locates the package document through the container
// descriptor and parses it.
func (bl *BookLoader) Load() (*LoadedBook, error) {
	archive, err := epub.Open(bl.path)
	if err != nil {
		return nil, err
	}

	book, err := bl.loadPackage(archive)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("failed to load '%s': %w", bl.path, err)
	}
	return &LoadedBook{Book: book, Archive: archive}, nil
}

func (bl *BookLoader) loadPackage(archive *epub.Archive) (*models.Book, error) {
	bl.checkMimeType(archive)

	container, err := archive.ReadEntry(parser.ContainerPath)
	if err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return nil, models.FormatErrorf("missing %s", parser.ContainerPath)
		}
		return nil, err
	}

	opfPath, err := parser.ParseContainer(container)
	if err != nil {
		return nil, err
	}

	opf, err := archive.ReadEntry(opfPath)
	if err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return nil, models.FormatErrorf("package document '%s' not found", opfPath)
		}
		return nil, err
	}

	book, err := parser.ParsePackage(opf, opfPath)
	if err != nil {
		return nil, err
	}

	bl.checkManifest(book, archive)
	return book, nil
}

// checkMimeType reports a missing or unexpected mimetype entry. Such archives
// are still converted.
func (bl *BookLoader) checkMimeType(archive *epub.Archive) {
	data, err := archive.ReadEntry("mimetype")
	if err != nil {
		bl.log.Debug("archive has no mimetype entry")
		return
	}
	if mt := strings.TrimSpace(string(data)); mt != MimeType {
		bl.log.Warn("unexpected archive mimetype", zap.String("mimetype", mt))
	}
}

// checkManifest reports manifest entries that are absent from the archive.
// Conversion fails later when such an entry has to be copied.
func (bl *BookLoader) checkManifest(book *models.Book, archive *epub.Archive) {
	for _, r := range book.Manifest {
		if name := book.ArchivePath(r.Href); !archive.Has(name) {
			bl.log.Warn("manifest entry missing from archive",
				zap.String("id", r.ID),
				zap.String("path", name))
		}
	}
}

// LoadBook is a convenience function to load a book
func LoadBook(path string, log *zap.Logger) (*LoadedBook, error) {
	return NewBookLoader(path, log).Load()
}
