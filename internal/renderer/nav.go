package renderer

import (
	"fmt"
	"path"
	"strings"

	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/utils"
)

// NavBuilder produces the previous / contents / next bar of a page.
type NavBuilder struct {
	tpl      *templates
	labels   config.LabelsConfig
	disabled bool
}

func newNavBuilder(tpl *templates, cfg *config.Config) *NavBuilder {
	return &NavBuilder{
		tpl:      tpl,
		labels:   cfg.Labels,
		disabled: cfg.Site.DisableNavigation,
	}
}

type navLink struct {
	href  string
	label string
}

func (l *navLink) data() interface{} {
	if l == nil {
		return nil
	}
	return map[string]string{"href": l.href, "label": l.label}
}

// Build returns the navigation markup for the page at spine position index
// written to currentDest. An index outside the spine (such as -1) yields the
// contents link only. With navigation disabled the result is empty.
func (b *NavBuilder) Build(index int, currentDest string, entries []models.SpineEntry, pm *pathmap.PathMap) (string, error) {
	if b.disabled {
		return "", nil
	}

	fromDir := utils.SlashDir(currentDest)
	link := func(i int, label string) (*navLink, error) {
		if index < 0 || index >= len(entries) || i < 0 || i >= len(entries) {
			return nil, nil
		}
		dest, ok := pm.Destination(entries[i].Resource.Href)
		if !ok {
			return nil, fmt.Errorf("spine entry '%s' has no destination", entries[i].Resource.Href)
		}
		return &navLink{href: utils.HrefTo(fromDir, dest), label: label}, nil
	}

	prev, err := link(index-1, b.labels.Previous)
	if err != nil {
		return "", err
	}
	next, err := link(index+1, b.labels.Next)
	if err != nil {
		return "", err
	}
	toc := &navLink{href: utils.HrefTo(fromDir, pathmap.IndexFile), label: b.labels.Contents}

	out, err := b.tpl.nav.Exec(map[string]interface{}{
		"previous": prev.data(),
		"next":     next.data(),
		"index":    toc.data(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render navigation: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DisplayTitle derives a page title from a destination file name, falling back
// to the ordinal chapter label when the stem carries no name. Pages outside the
// spine (number < 1) fall back to the contents label instead.
func DisplayTitle(dest string, number int, labels config.LabelsConfig) string {
	base := path.Base(dest)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem != "" && stem != "." && stem != pathmap.Placeholder {
		return stem
	}
	if number < 1 {
		return labels.Contents
	}
	return labels.ChapterTitle(number)
}
