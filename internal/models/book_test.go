package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceClassification(t *testing.T) {
	assert.True(t, ResourceRecord{MediaType: "application/xhtml+xml"}.IsDocument())
	assert.True(t, ResourceRecord{MediaType: "Text/HTML; charset=utf-8"}.IsDocument())
	assert.False(t, ResourceRecord{MediaType: "image/png"}.IsDocument())
	assert.True(t, ResourceRecord{MediaType: "text/css"}.IsStylesheet())

	r := ResourceRecord{Href: "images/cover.jpg", Properties: []string{"cover-image"}}
	assert.True(t, r.HasProperty("cover-image"))
	assert.False(t, r.HasProperty("nav"))
	assert.Equal(t, "images", r.Dir())
	assert.Equal(t, "", ResourceRecord{Href: "cover.jpg"}.Dir())
}

func TestBookPaths(t *testing.T) {
	b := NewBook()
	b.PackagePath = "OEBPS/content.opf"
	assert.Equal(t, "OEBPS", b.PackageDir())
	assert.Equal(t, "OEBPS/images/a.png", b.ArchivePath("text/../images/a.png"))

	b.PackagePath = "content.opf"
	assert.Equal(t, "", b.PackageDir())
	assert.Equal(t, "images/a.png", b.ArchivePath("./images/a.png"))

	b.Manifest = append(b.Manifest, ResourceRecord{ID: "c1", Href: "c1.xhtml"})
	r, ok := b.Resource("c1")
	assert.True(t, ok)
	assert.Equal(t, "c1.xhtml", r.Href)
	_, ok = b.Resource("C1")
	assert.False(t, ok)
}

func TestMetadataFirst(t *testing.T) {
	m := Metadata{Title: []string{"  ", "Real Title"}}
	assert.Equal(t, "Real Title", m.FirstTitle("x"))
	assert.Equal(t, "en", m.FirstLanguage("en"))
	assert.Equal(t, 3, SpineEntry{Index: 2}.Number())
}

func TestErrorKinds(t *testing.T) {
	err := FormatErrorf("spine %s", "empty")
	assert.True(t, errors.Is(err, ErrFormat))
	assert.EqualError(t, err, "invalid epub format: spine empty")

	err = NotFoundErrorf("entry '%s'", "a.png")
	assert.True(t, errors.Is(err, ErrResourceNotFound))
	assert.False(t, errors.Is(err, ErrFormat))
}
