package renderer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/geocine/epubweb/internal/rewriter"
	"github.com/geocine/epubweb/internal/search"
	"github.com/geocine/epubweb/internal/utils"
)

// SearchIndexFile is written at the site root when site.search-index is set
const SearchIndexFile = "search-index.json"

// addToSearch indexes the text of a rewritten document under its page path.
// The document's own <title> wins over the derived page title.
func addToSearch(idx *search.Index, dest, title string, doc rewriter.Document) {
	if t := strings.TrimSpace(doc.Title); t != "" {
		title = t
	}
	idx.Add(search.Page{Ref: dest, Title: title, Body: plainText(doc.Body)})
}

// plainText flattens markup to whitespace-collapsed text. Text nodes are
// separated so adjacent blocks do not run together.
func plainText(markup string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	d.Find("script, style").Remove()

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range d.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeSearchIndex(st *run) error {
	data, err := json.Marshal(st.search)
	if err != nil {
		return fmt.Errorf("failed to encode search index: %w", err)
	}
	return utils.WriteFile(st.outPath(SearchIndexFile), data)
}
