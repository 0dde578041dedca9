package renderer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeChapters(t *testing.T) (*pathmap.PathMap, []models.SpineEntry) {
	t.Helper()
	manifest := []models.ResourceRecord{
		{ID: "c1", Href: "text/one.xhtml", MediaType: models.MediaTypeXHTML},
		{ID: "c2", Href: "text/two.xhtml", MediaType: models.MediaTypeXHTML},
		{ID: "c3", Href: "text/three.xhtml", MediaType: models.MediaTypeXHTML},
	}
	pm, entries, err := pathmap.Build(manifest, []models.ItemRef{{IDRef: "c1"}, {IDRef: "c2"}, {IDRef: "c3"}}, nil)
	require.NoError(t, err)
	return pm, entries
}

func navFor(t *testing.T, cfg *config.Config) *NavBuilder {
	t.Helper()
	tpl, err := loadTemplates(nil)
	require.NoError(t, err)
	return newNavBuilder(tpl, cfg)
}

func parseNav(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestNavBoundaries(t *testing.T) {
	pm, entries := threeChapters(t)
	nb := navFor(t, config.NewDefaultConfig())

	cases := []struct {
		index int
		prev  string
		next  string
	}{
		{0, "", "two.html"},
		{1, "one.html", "three.html"},
		{2, "two.html", ""},
	}

	for _, c := range cases {
		dest, _ := pm.Destination(entries[c.index].Resource.Href)
		markup, err := nb.Build(c.index, dest, entries, pm)
		require.NoError(t, err)
		doc := parseNav(t, markup)

		prev, hasPrev := doc.Find("a.nav-prev").Attr("href")
		next, hasNext := doc.Find("a.nav-next").Attr("href")
		assert.Equal(t, c.prev != "", hasPrev, "index %d", c.index)
		assert.Equal(t, c.next != "", hasNext, "index %d", c.index)
		assert.Equal(t, c.prev, prev, "index %d", c.index)
		assert.Equal(t, c.next, next, "index %d", c.index)

		toc, _ := doc.Find("a.nav-toc").Attr("href")
		assert.Equal(t, "../index.html", toc)

		empty := 0
		if c.prev == "" {
			empty++
		}
		if c.next == "" {
			empty++
		}
		assert.Equal(t, empty, doc.Find("span.nav-empty").Length(), "index %d", c.index)
	}
}

func TestNavLabels(t *testing.T) {
	pm, entries := threeChapters(t)
	cfg := config.NewDefaultConfig()
	cfg.Labels.Previous = "<<"
	cfg.Labels.Contents = "Index & more"

	markup, err := navFor(t, cfg).Build(1, "documents/two.html", entries, pm)
	require.NoError(t, err)
	doc := parseNav(t, markup)

	assert.Equal(t, "<<", doc.Find("a.nav-prev").Text())
	assert.Equal(t, "Index & more", doc.Find("a.nav-toc").Text())
	assert.Contains(t, markup, "Index &amp; more")
}

func TestNavDisabled(t *testing.T) {
	pm, entries := threeChapters(t)
	cfg := config.NewDefaultConfig()
	cfg.Site.DisableNavigation = true

	markup, err := navFor(t, cfg).Build(1, "documents/two.html", entries, pm)
	require.NoError(t, err)
	assert.Equal(t, "", markup)
}

func TestNavOutsideSpine(t *testing.T) {
	pm, entries := threeChapters(t)
	markup, err := navFor(t, config.NewDefaultConfig()).Build(-1, "documents/extra.html", entries, pm)
	require.NoError(t, err)
	doc := parseNav(t, markup)

	assert.Equal(t, 0, doc.Find("a.nav-prev, a.nav-next").Length())
	assert.Equal(t, 1, doc.Find("a.nav-toc").Length())
	assert.Equal(t,
		`<nav class="chapter-nav"><span class="nav-empty"></span><a class="nav-toc" href="../index.html">Contents</a><span class="nav-empty"></span></nav>`,
		testutil.NormalizeHTML(markup))
}

func TestDisplayTitle(t *testing.T) {
	labels := config.NewDefaultConfig().Labels

	assert.Equal(t, "chapter-01", DisplayTitle("documents/chapter-01.html", 1, labels))
	assert.Equal(t, "Chapter 4", DisplayTitle("documents/unknown.html", 4, labels))
	assert.Equal(t, "Chapter 2", DisplayTitle("documents/.html", 2, labels))
	assert.Equal(t, "Contents", DisplayTitle("documents/unknown.html", 0, labels))
	assert.Equal(t, "extra", DisplayTitle("documents/extra.html", 0, labels))

	labels.Chapter = "第 %d 章"
	assert.Equal(t, "第 7 章", DisplayTitle("documents/unknown.html", 7, labels))
}
