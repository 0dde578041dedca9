package rewriter

import (
	"testing"

	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testPathMap(t *testing.T) *pathmap.PathMap {
	t.Helper()
	manifest := []models.ResourceRecord{
		{ID: "ch1", Href: "text/ch1.xhtml", MediaType: models.MediaTypeXHTML},
		{ID: "ch2", Href: "text/chapter2.xhtml", MediaType: models.MediaTypeXHTML},
		{ID: "cover", Href: "images/cover.jpg", MediaType: "image/jpeg"},
		{ID: "bg", Href: "images/Paper Texture.png", MediaType: "image/png"},
		{ID: "css", Href: "styles/book.css", MediaType: models.MediaTypeCSS},
		{ID: "extra", Href: "styles/extra.css", MediaType: models.MediaTypeCSS},
		{ID: "font", Href: "fonts/serif.woff2", MediaType: "font/woff2"},
	}
	pm, _, err := pathmap.Build(manifest, []models.ItemRef{{IDRef: "ch1"}, {IDRef: "ch2"}}, nil)
	require.NoError(t, err)
	return pm
}

func chapterContext() RewriteContext {
	return RewriteContext{
		SourceKey: "text/ch1.xhtml",
		SourceDir: "text",
		Dest:      "documents/ch1.html",
		Index:     0,
	}
}

func TestResolveLinkLeavesExternalReferences(t *testing.T) {
	pm := testPathMap(t)
	refs := []string{
		"#section-1",
		"/images/cover.jpg",
		"http://example.com/ch1.xhtml",
		"mailto:someone@example.com",
		"urn:isbn:123",
		"",
		"   ",
		"?query",
	}
	for _, ref := range refs {
		res := ResolveLink(ref, "text", "documents/ch1.html", pm)
		assert.Equal(t, Unchanged, res.Outcome, ref)
		assert.Equal(t, ref, res.Ref, ref)
	}
}

func TestResolveLinkRelocatesAssets(t *testing.T) {
	pm := testPathMap(t)

	res := ResolveLink("../images/cover.jpg", "text", "documents/ch1.html", pm)
	assert.Equal(t, Rewritten, res.Outcome)
	assert.Equal(t, "../assets/cover.jpg", res.Ref)

	res = ResolveLink("chapter2.xhtml#section-3", "text", "documents/ch1.html", pm)
	assert.Equal(t, Rewritten, res.Outcome)
	assert.Equal(t, "chapter2.html#section-3", res.Ref)

	res = ResolveLink("./ch1.xhtml?v=2", "text", "documents/ch1.html", pm)
	assert.Equal(t, "ch1.html?v=2", res.Ref)
}

func TestResolveLinkIsCaseAndEncodingInsensitive(t *testing.T) {
	pm := testPathMap(t)

	for _, ref := range []string{"../Images/COVER.jpg", "../images/cover%2Ejpg", "../%69mages/cover.jpg", "sub/../../images/cover.jpg"} {
		res := ResolveLink(ref, "text", "documents/ch1.html", pm)
		assert.Equal(t, Rewritten, res.Outcome, ref)
		assert.Equal(t, "../assets/cover.jpg", res.Ref, ref)
	}

	res := ResolveLink("../images/Paper%20Texture.png", "text", "documents/ch1.html", pm)
	assert.Equal(t, "../assets/Paper%20Texture.png", res.Ref)
}

func TestResolveLinkUnresolved(t *testing.T) {
	pm := testPathMap(t)
	res := ResolveLink("../images/missing.jpg#x", "text", "documents/ch1.html", pm)
	assert.Equal(t, Unresolved, res.Outcome)
	assert.Equal(t, "../images/missing.jpg#x", res.Ref)
	assert.Equal(t, "images/missing.jpg", res.Target)
}

func TestResolverDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewResolver(testPathMap(t), zap.New(core))
	ctx := chapterContext()

	out, changed := r.Resolve(ctx, "../fonts/missing.woff2")
	assert.False(t, changed)
	assert.Equal(t, "../fonts/missing.woff2", out)
	assert.Equal(t, 0, logs.Len())

	_, changed = r.Resolve(ctx, "../fonts/Missing.TTF")
	assert.False(t, changed)
	assert.Equal(t, 0, logs.Len())

	_, changed = r.Resolve(ctx, "../fonts/missing.jpg")
	assert.False(t, changed)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "../fonts/missing.jpg", entry.ContextMap()["ref"])

	out, changed = r.Resolve(ctx, "../images/cover.jpg")
	assert.True(t, changed)
	assert.Equal(t, "../assets/cover.jpg", out)

	_, changed = r.Resolve(ctx, "https://example.com/x.jpg")
	assert.False(t, changed)
	assert.Equal(t, 1, logs.Len())
}

func TestRewriteContextDestDir(t *testing.T) {
	assert.Equal(t, "documents", chapterContext().DestDir())
	assert.Equal(t, "", RewriteContext{Dest: "index.html"}.DestDir())
}
