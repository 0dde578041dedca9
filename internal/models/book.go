package models

import (
	"path"
	"strings"
)

// Media types treated as content documents. Everything else is an asset.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeHTML  = "text/html"
	MediaTypeCSS   = "text/css"
)

// ResourceRecord is one manifest entry of the package document.
// Href is relative to the package document's own directory.
type ResourceRecord struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string // "nav", "cover-image", etc.
}

// IsDocument reports whether the resource is a markup content document
func (r ResourceRecord) IsDocument() bool {
	return IsDocumentType(r.MediaType)
}

// IsStylesheet reports whether the resource is a CSS stylesheet
func (r ResourceRecord) IsStylesheet() bool {
	return baseMediaType(r.MediaType) == MediaTypeCSS
}

// HasProperty reports whether the manifest item declares the given property
func (r ResourceRecord) HasProperty(prop string) bool {
	for _, p := range r.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// Dir returns the resource's directory inside the package ("" for top level)
func (r ResourceRecord) Dir() string {
	dir := path.Dir(r.Href)
	if dir == "." {
		return ""
	}
	return dir
}

// IsDocumentType classifies a media type as markup content.
func IsDocumentType(mediaType string) bool {
	switch baseMediaType(mediaType) {
	case MediaTypeXHTML, MediaTypeHTML, "application/html":
		return true
	}
	return false
}

func baseMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ItemRef is one reading-order reference as declared in the spine
type ItemRef struct {
	IDRef  string
	Linear bool
}

// SpineEntry is a resolved reading-order position.
// Duplicate references keep independent entries, each with its own Index.
type SpineEntry struct {
	Resource ResourceRecord
	Index    int // zero-based position in traversal order
	Linear   bool
}

// Number returns the 1-based position used for ordinal labels
func (s SpineEntry) Number() int {
	return s.Index + 1
}

// Metadata holds the bibliographic part of the package document.
// Every field keeps all declared values in declaration order.
type Metadata struct {
	Title       []string
	Creator     []string
	Language    []string
	Identifier  []string
	Publisher   []string
	Description []string
	Date        []string
	Subject     []string
}

// FirstTitle returns the first declared title or fallback when none is set
func (m Metadata) FirstTitle(fallback string) string {
	return first(m.Title, fallback)
}

// FirstLanguage returns the first declared language or fallback
func (m Metadata) FirstLanguage(fallback string) string {
	return first(m.Language, fallback)
}

func first(values []string, fallback string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return fallback
}

// Book is the parsed package of an archive.
type Book struct {
	Version  string // "2.0" or "3.0"
	Metadata Metadata
	Manifest []ResourceRecord
	Spine    []ItemRef
	// PackagePath is the archive path of the package document, e.g. "OEBPS/content.opf".
	PackagePath string
}

// NewBook creates an empty book
func NewBook() *Book {
	return &Book{
		Manifest: make([]ResourceRecord, 0),
		Spine:    make([]ItemRef, 0),
	}
}

// PackageDir returns the archive directory all manifest hrefs are relative to
func (b *Book) PackageDir() string {
	dir := path.Dir(b.PackagePath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// ArchivePath resolves a manifest href to its path inside the archive
func (b *Book) ArchivePath(href string) string {
	dir := b.PackageDir()
	if dir == "" {
		return path.Clean(href)
	}
	return path.Join(dir, href)
}

// Resource looks up a manifest record by its exact identifier
func (b *Book) Resource(id string) (ResourceRecord, bool) {
	for _, r := range b.Manifest {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceRecord{}, false
}
