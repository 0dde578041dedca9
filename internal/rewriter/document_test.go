package rewriter

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const chapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:xlink="http://www.w3.org/1999/xlink" xml:lang="fr">
<head>
  <title>Chapter One</title>
  <meta charset="utf-8"/>
  <link rel="stylesheet" type="text/css" href="../styles/book.css"/>
  <link rel="icon" href="../images/cover.jpg"/>
  <style>p { background: url('../images/cover.jpg'); }</style>
</head>
<body class="chapter">
  <h1 id="top">One</h1>
  <p><a href="chapter2.xhtml#section-3">next</a> <a href="#top">top</a> <a href="https://example.com/">web</a></p>
  <p><img src="../Images/Cover.jpg" alt="cover"/><img src="../images/missing.png"/></p>
  <div style="background-image: url(../images/cover.jpg)">styled</div>
  <svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
    <image width="10" height="10" xlink:href="../images/cover.jpg"/>
  </svg>
  <video poster="../images/cover.jpg"><source src="../images/cover.jpg"/></video>
</body>
</html>`

func parseBody(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func TestDocumentTransform(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)
	dt := NewDocumentTransformer(NewResolver(testPathMap(t), log), log)

	out := dt.Transform(chapterContext(), []byte(chapterXHTML))

	assert.False(t, out.Passthrough)
	assert.Equal(t, "Chapter One", out.Title)
	assert.Equal(t, "fr", out.Lang)
	assert.NotContains(t, out.Body, "<title")
	assert.NotContains(t, out.Body, "<body")
	assert.NotContains(t, out.Body, "<head")

	doc := parseBody(t, out.Body)

	hrefs := doc.Find("a").Map(func(_ int, s *goquery.Selection) string {
		v, _ := s.Attr("href")
		return v
	})
	assert.Equal(t, []string{"chapter2.html#section-3", "#top", "https://example.com/"}, hrefs)

	srcs := doc.Find("img").Map(func(_ int, s *goquery.Selection) string {
		v, _ := s.Attr("src")
		return v
	})
	assert.Equal(t, []string{"../assets/cover.jpg", "../images/missing.png"}, srcs)

	style, _ := doc.Find("div").Attr("style")
	assert.Equal(t, "background-image: url(../assets/cover.jpg)", style)

	poster, _ := doc.Find("video").Attr("poster")
	assert.Equal(t, "../assets/cover.jpg", poster)
	src, _ := doc.Find("source").Attr("src")
	assert.Equal(t, "../assets/cover.jpg", src)

	assert.Contains(t, out.Body, `xlink:href="../assets/cover.jpg"`)

	// head stylesheets survive, other links do not
	assert.Contains(t, out.Head, `href="../assets/book.css"`)
	assert.Contains(t, out.Head, `url('../assets/cover.jpg')`)
	assert.NotContains(t, out.Head, `rel="icon"`)

	// only the missing image is reported
	assert.Equal(t, 1, logs.FilterMessage("unresolved reference").Len())
}

func TestDocumentTransformMalformedMarkup(t *testing.T) {
	dt := NewDocumentTransformer(NewResolver(testPathMap(t), nil), nil)

	out := dt.Transform(chapterContext(), []byte(`<p>unclosed <b>bold <a href="chapter2.xhtml">link`))
	assert.False(t, out.Passthrough)
	assert.Contains(t, out.Body, `href="chapter2.html"`)
	assert.Contains(t, out.Body, "unclosed")
}

func TestDocumentTransformWithoutTitle(t *testing.T) {
	dt := NewDocumentTransformer(NewResolver(testPathMap(t), nil), nil)

	out := dt.Transform(chapterContext(), []byte(`<html><head></head><body><p>plain</p></body></html>`))
	assert.Equal(t, "", out.Title)
	assert.Equal(t, "", out.Head)
	assert.Equal(t, "<p>plain</p>", out.Body)
}

func TestDecodeMarkup(t *testing.T) {
	text, enc := DecodeMarkup([]byte("\xEF\xBB\xBF<p>bom</p>"))
	assert.Equal(t, "<p>bom</p>", text)
	assert.Equal(t, "utf-8", enc)

	text, enc = DecodeMarkup([]byte("<html><head><meta charset=\"windows-1252\"></head><body>caf\xE9</body></html>"))
	assert.Contains(t, text, "café")
	assert.Equal(t, "windows-1252", enc)

	text, _ = DecodeMarkup([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><p>na\xEFve</p>"))
	assert.Contains(t, text, "naïve")

	text, enc = DecodeMarkup([]byte("<p>déjà</p>"))
	assert.Equal(t, "<p>déjà</p>", text)
	assert.Equal(t, "utf-8", enc)
}
