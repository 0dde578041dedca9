package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/geocine/epubweb/internal/models"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ParsePackage parses a package document (OPF) into a Book.
// packagePath is the archive path the document was read from.
func ParsePackage(data []byte, packagePath string) (*models.Book, error) {
	doc, err := readDocument(data)
	if err != nil {
		return nil, models.FormatErrorf("failed to parse package document '%s': %v", packagePath, err)
	}

	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "package") {
		return nil, models.FormatErrorf("package document '%s' has no <package> root", packagePath)
	}

	manifest := firstChildByTag(root, "manifest")
	if manifest == nil {
		return nil, models.FormatErrorf("package document '%s' has no <manifest>", packagePath)
	}
	spine := firstChildByTag(root, "spine")
	if spine == nil {
		return nil, models.FormatErrorf("package document '%s' has no <spine>", packagePath)
	}

	book := models.NewBook()
	book.PackagePath = packagePath
	book.Version = strings.TrimSpace(root.SelectAttrValue("version", ""))
	if meta := firstChildByTag(root, "metadata"); meta != nil {
		parseMetadata(meta, &book.Metadata)
	}

	for _, item := range childrenByTag(manifest, "item") {
		book.Manifest = append(book.Manifest, models.ResourceRecord{
			ID:         strings.TrimSpace(item.SelectAttrValue("id", "")),
			Href:       strings.TrimSpace(item.SelectAttrValue("href", "")),
			MediaType:  strings.TrimSpace(item.SelectAttrValue("media-type", "")),
			Properties: strings.Fields(item.SelectAttrValue("properties", "")),
		})
	}

	for _, ref := range childrenByTag(spine, "itemref") {
		book.Spine = append(book.Spine, models.ItemRef{
			IDRef:  strings.TrimSpace(ref.SelectAttrValue("idref", "")),
			Linear: !strings.EqualFold(strings.TrimSpace(ref.SelectAttrValue("linear", "yes")), "no"),
		})
	}

	return book, nil
}

// parseMetadata collects Dublin Core elements. OPF 2.0 files sometimes nest
// them inside <dc-metadata>, so that wrapper is descended into as well.
func parseMetadata(el *etree.Element, m *models.Metadata) {
	for _, c := range el.ChildElements() {
		text := strings.TrimSpace(c.Text())
		switch strings.ToLower(c.Tag) {
		case "dc-metadata", "x-metadata":
			parseMetadata(c, m)
			continue
		case "title":
			m.Title = appendNonEmpty(m.Title, text)
		case "creator":
			m.Creator = appendNonEmpty(m.Creator, text)
		case "language":
			m.Language = appendNonEmpty(m.Language, text)
		case "identifier":
			m.Identifier = appendNonEmpty(m.Identifier, text)
		case "publisher":
			m.Publisher = appendNonEmpty(m.Publisher, text)
		case "description":
			m.Description = appendNonEmpty(m.Description, text)
		case "date":
			m.Date = appendNonEmpty(m.Date, text)
		case "subject":
			m.Subject = appendNonEmpty(m.Subject, text)
		}
	}
}

func appendNonEmpty(values []string, v string) []string {
	if v == "" {
		return values
	}
	return append(values, v)
}

// charsetReader decodes package documents declared in a legacy encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
