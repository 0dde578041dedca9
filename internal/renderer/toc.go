package renderer

import (
	"bytes"
	"fmt"
	htmlutil "html"
	"strings"

	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/utils"
)

// tocEntry is one line of the table of contents
type tocEntry struct {
	Href  string
	Title string
}

// tocEntries lists every spine entry in reading order, duplicates included.
func (r *HtmlRenderer) tocEntries(entries []models.SpineEntry, pm *pathmap.PathMap) ([]tocEntry, error) {
	out := make([]tocEntry, 0, len(entries))
	for _, e := range entries {
		dest, ok := pm.Destination(e.Resource.Href)
		if !ok {
			return nil, fmt.Errorf("spine entry '%s' has no destination", e.Resource.Href)
		}
		out = append(out, tocEntry{
			Href:  utils.HrefTo("", dest),
			Title: DisplayTitle(dest, e.Number(), r.cfg.Labels),
		})
	}
	return out, nil
}

// tocBody builds the markup of the index page
func (r *HtmlRenderer) tocBody(title string, meta models.Metadata, entries []tocEntry) (string, error) {
	var buf strings.Builder

	buf.WriteString(`<h1 class="toc-title">`)
	buf.WriteString(htmlutil.EscapeString(title))
	buf.WriteString("</h1>\n")

	if r.cfg.Site.ShowMetadata {
		info, err := r.renderBookInfo(meta)
		if err != nil {
			return "", err
		}
		if info != "" {
			buf.WriteString(`<div class="book-info">`)
			buf.WriteString(info)
			buf.WriteString("</div>\n")
		}
	}

	buf.WriteString(`<ol class="toc">` + "\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "<li><a href=\"%s\">%s</a></li>\n", htmlutil.EscapeString(e.Href), htmlutil.EscapeString(e.Title))
	}
	buf.WriteString("</ol>")
	return buf.String(), nil
}

// renderBookInfo renders the bibliographic block of the index page.
// The block is composed as Markdown; the description is inserted as is since
// packages commonly carry it as markup.
func (r *HtmlRenderer) renderBookInfo(meta models.Metadata) (string, error) {
	var md strings.Builder
	field := func(name string, values []string) {
		var kept []string
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				kept = append(kept, escapeMarkdown(v))
			}
		}
		if len(kept) == 0 {
			return
		}
		fmt.Fprintf(&md, "%s\n: %s\n\n", name, strings.Join(kept, ", "))
	}

	field("Author", meta.Creator)
	field("Publisher", meta.Publisher)
	field("Published", meta.Date)
	field("Language", meta.Language)
	field("Identifier", meta.Identifier)
	field("Subject", meta.Subject)

	for _, d := range meta.Description {
		if d = strings.TrimSpace(d); d != "" {
			md.WriteString(d)
			md.WriteString("\n\n")
		}
	}

	if md.Len() == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("failed to render book information: %w", err)
	}
	return buf.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`|`, `\|`,
	`~`, `\~`,
)

// escapeMarkdown makes a plain metadata value render literally
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
