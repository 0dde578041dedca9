package loader

import (
	"errors"
	"testing"

	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/parser"
	"github.com/geocine/epubweb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadBook(t *testing.T) {
	path := testutil.BuildEPUB(t, map[string]string{
		parser.ContainerPath: testutil.ContainerXML,
		"OEBPS/content.opf": testutil.PackageXML("Loaded", []testutil.Item{
			{ID: "a", Href: "text/a.xhtml", MediaType: models.MediaTypeXHTML},
			{ID: "img", Href: "images/gone.png", MediaType: "image/png"},
		}, []string{"a"}),
		"OEBPS/text/a.xhtml": testutil.XHTML("A", "<p>a</p>"),
	})

	core, logs := observer.New(zapcore.WarnLevel)
	lb, err := LoadBook(path, zap.New(core))
	require.NoError(t, err)
	defer lb.Close()

	assert.Equal(t, "Loaded", lb.Book.Metadata.FirstTitle(""))
	assert.Equal(t, "OEBPS/content.opf", lb.Book.PackagePath)
	require.Len(t, lb.Book.Manifest, 2)
	require.Len(t, lb.Book.Spine, 1)

	data, err := lb.Archive.ReadEntry(lb.Book.ArchivePath("text/a.xhtml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>a</p>")

	assert.Equal(t, 1, logs.FilterMessage("manifest entry missing from archive").Len())
}

func TestLoadBookWithoutContainer(t *testing.T) {
	path := testutil.BuildEPUB(t, map[string]string{
		"OEBPS/content.opf": testutil.PackageXML("X", nil, nil),
	})

	_, err := LoadBook(path, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFormat))
	assert.Contains(t, err.Error(), parser.ContainerPath)
}

func TestLoadBookWithMissingPackage(t *testing.T) {
	path := testutil.BuildEPUB(t, map[string]string{
		parser.ContainerPath: testutil.ContainerXML,
	})

	_, err := LoadBook(path, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFormat))
	assert.Contains(t, err.Error(), "OEBPS/content.opf")
}

func TestLoadBookNotAnArchive(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "fake.epub", "plain text")

	_, err := LoadBook(dir+"/fake.epub", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open archive")
}
