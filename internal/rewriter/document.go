package rewriter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// attrRule names one element/attribute pair holding a relocatable reference.
type attrRule struct {
	selector string
	attr     string
}

// rewriteRules is the closed set of reference-bearing attributes.
var rewriteRules = []attrRule{
	{"a[href]", "href"},
	{"area[href]", "href"},
	{"link[href]", "href"},
	{"img[src]", "src"},
	{"audio[src]", "src"},
	{"video[src]", "src"},
	{"source[src]", "src"},
	{"track[src]", "src"},
	{"embed[src]", "src"},
	{"video[poster]", "poster"},
}

// Document is a content document after rewriting, ready for the site template.
type Document struct {
	// Title is the text of the removed title element.
	Title string
	// Head holds the stylesheet links and style elements of the original head.
	Head string
	// Body is the inner markup of the body element.
	Body string
	// Lang is the language declared on the root element, if any.
	Lang string
	// Passthrough is set when the markup could not be parsed and Body is the
	// decoded source text.
	Passthrough bool
}

// DocumentTransformer rewrites the references of markup documents.
type DocumentTransformer struct {
	resolver *Resolver
	css      *StylesheetTransformer
	log      *zap.Logger
}

// NewDocumentTransformer creates a transformer sharing resolver's path map
func NewDocumentTransformer(resolver *Resolver, log *zap.Logger) *DocumentTransformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentTransformer{
		resolver: resolver,
		css:      NewStylesheetTransformer(resolver),
		log:      log,
	}
}

// Transform decodes, parses and rewrites one content document. It never
// fails: markup the parser rejects is passed through as the body.
func (t *DocumentTransformer) Transform(ctx RewriteContext, data []byte) Document {
	text, _ := DecodeMarkup(data)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		t.log.Warn("markup could not be parsed, passing through",
			zap.String("source", ctx.SourceKey),
			zap.Error(err))
		return Document{Body: text, Passthrough: true}
	}

	out := Document{}
	out.Lang = documentLang(doc)

	titles := doc.Find("head title")
	out.Title = strings.TrimSpace(titles.First().Text())
	titles.Remove()

	for _, rule := range rewriteRules {
		attr := rule.attr
		doc.Find(rule.selector).Each(func(_ int, s *goquery.Selection) {
			value, _ := s.Attr(attr)
			if rewritten, ok := t.resolver.Resolve(ctx, value); ok {
				s.SetAttr(attr, rewritten)
			}
		})
	}
	doc.Find("image").Each(func(_ int, s *goquery.Selection) {
		t.rewriteSVGImage(ctx, s.Get(0))
	})
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if rewritten := t.css.Rewrite(ctx, style); rewritten != style {
			s.SetAttr("style", rewritten)
		}
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css := s.Text()
		if rewritten := t.css.Rewrite(ctx, css); rewritten != css {
			setRawText(s.Get(0), rewritten)
		}
	})

	out.Head = headStyles(doc)

	body, err := doc.Find("body").First().Html()
	if err != nil {
		t.log.Warn("body could not be rendered, passing through",
			zap.String("source", ctx.SourceKey),
			zap.Error(err))
		return Document{Title: out.Title, Body: text, Passthrough: true}
	}
	out.Body = strings.TrimSpace(body)
	return out
}

// rewriteSVGImage handles href and xlink:href on SVG image elements. The
// namespaced form is not addressable through a selector, so attributes are
// walked directly.
func (t *DocumentTransformer) rewriteSVGImage(ctx RewriteContext, n *html.Node) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Key != "href" {
			continue
		}
		if rewritten, ok := t.resolver.Resolve(ctx, a.Val); ok {
			n.Attr[i].Val = rewritten
		}
	}
}

// setRawText replaces the children of a raw text element such as style.
func setRawText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// headStyles collects the stylesheet links and style elements of the head.
func headStyles(doc *goquery.Document) string {
	var parts []string
	doc.Find("head").Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "link":
			if !isStylesheetLink(s) {
				return
			}
		case "style":
		default:
			return
		}
		if markup, err := goquery.OuterHtml(s); err == nil {
			parts = append(parts, markup)
		}
	})
	return strings.Join(parts, "\n")
}

func isStylesheetLink(s *goquery.Selection) bool {
	rel, _ := s.Attr("rel")
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "stylesheet" {
			return true
		}
	}
	return false
}

func documentLang(doc *goquery.Document) string {
	root := doc.Find("html").First()
	if lang, ok := root.Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		return strings.TrimSpace(lang)
	}
	if lang, ok := root.Attr("xml:lang"); ok {
		return strings.TrimSpace(lang)
	}
	return ""
}
