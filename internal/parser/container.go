package parser

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/geocine/epubweb/internal/models"
)

// ContainerPath is the fixed location of the rootfile pointer inside an archive
const ContainerPath = "META-INF/container.xml"

const packageMediaType = "application/oebps-package+xml"

// Rootfile is one <rootfile> entry of the container
type Rootfile struct {
	FullPath  string
	MediaType string
}

// ParseContainer parses META-INF/container.xml and returns the archive path of
// the package document.
func ParseContainer(data []byte) (string, error) {
	doc, err := readDocument(data)
	if err != nil {
		return "", models.FormatErrorf("failed to parse %s: %v", ContainerPath, err)
	}

	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "container") {
		return "", models.FormatErrorf("%s has no <container> root", ContainerPath)
	}

	var rootfiles []Rootfile
	for _, group := range childrenByTag(root, "rootfiles") {
		for _, rf := range childrenByTag(group, "rootfile") {
			rootfiles = append(rootfiles, Rootfile{
				FullPath:  strings.TrimSpace(rf.SelectAttrValue("full-path", "")),
				MediaType: strings.TrimSpace(rf.SelectAttrValue("media-type", "")),
			})
		}
	}

	// Prefer the package rootfile; alternate renditions may be listed first.
	for _, rf := range rootfiles {
		if rf.FullPath != "" && (rf.MediaType == packageMediaType || rf.MediaType == "") {
			return rf.FullPath, nil
		}
	}
	for _, rf := range rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}

	return "", models.FormatErrorf("no rootfile found in %s", ContainerPath)
}

func readDocument(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// childrenByTag returns direct children whose local name matches tag,
// ignoring namespace prefixes and case.
func childrenByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			out = append(out, c)
		}
	}
	return out
}

func firstChildByTag(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
	}
	return nil
}
