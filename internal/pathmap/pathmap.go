// Package pathmap decides where every manifest resource lands in the output site.
package pathmap

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/geocine/epubweb/internal/models"
	"go.uber.org/zap"
)

// Output layout
const (
	DocumentsDir     = "documents"
	AssetsDir        = "assets"
	IndexFile        = "index.html"
	SharedStylesheet = AssetsDir + "/styles.css"
	DocumentExt      = ".html"

	// Placeholder is the stem used when a source reference has no usable basename.
	Placeholder = "unknown"
)

// PathMap maps normalized source keys to destination paths relative to the
// output root. It is never modified after Build returns.
type PathMap struct {
	dest map[string]string
}

// Lookup returns the destination of an already normalized key.
func (m *PathMap) Lookup(key string) (string, bool) {
	d, ok := m.dest[key]
	return d, ok
}

// Destination returns the destination of a manifest href.
func (m *PathMap) Destination(href string) (string, bool) {
	return m.Lookup(SourceKey(href))
}

// Len returns the number of mapped keys
func (m *PathMap) Len() int {
	return len(m.dest)
}

// Keys returns every source key in sorted order
func (m *PathMap) Keys() []string {
	keys := make([]string, 0, len(m.dest))
	for k := range m.dest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder computes a PathMap and the resolved reading order.
type Builder struct {
	log    *zap.Logger
	exists func(href string) bool
}

// NewBuilder creates a builder reporting diagnostics to log
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log}
}

// WithEntryCheck makes Build drop spine items whose content is absent from
// the archive. exists receives the manifest href.
func (b *Builder) WithEntryCheck(exists func(href string) bool) *Builder {
	b.exists = exists
	return b
}

// Build is shorthand for NewBuilder(log).Build(manifest, spine).
func Build(manifest []models.ResourceRecord, spine []models.ItemRef, log *zap.Logger) (*PathMap, []models.SpineEntry, error) {
	return NewBuilder(log).Build(manifest, spine)
}

// Build assigns a unique destination to every manifest resource and resolves
// the spine into content documents in reading order.
//
// Destinations never collide: a later resource whose natural destination is
// taken (compared case-insensitively) gets a numeric suffix. Spine identifiers
// missing from the manifest, pointing at non-document resources or, with an
// entry check, at content missing from the archive are skipped.
func (b *Builder) Build(manifest []models.ResourceRecord, spine []models.ItemRef) (*PathMap, []models.SpineEntry, error) {
	if len(manifest) == 0 {
		return nil, nil, models.FormatErrorf("manifest is empty")
	}
	if len(spine) == 0 {
		return nil, nil, models.FormatErrorf("spine is empty")
	}

	m := &PathMap{dest: make(map[string]string, len(manifest))}
	taken := map[string]bool{
		strings.ToLower(IndexFile):        true,
		strings.ToLower(SharedStylesheet): true,
	}

	for _, r := range manifest {
		key := SourceKey(r.Href)
		if existing, dup := m.dest[key]; dup {
			b.log.Warn("duplicate manifest reference",
				zap.String("id", r.ID),
				zap.String("href", r.Href),
				zap.String("destination", existing))
			continue
		}

		natural := naturalDestination(r)
		dest := disambiguate(natural, taken)
		if dest != natural {
			b.log.Info("destination renamed to avoid collision",
				zap.String("href", r.Href),
				zap.String("wanted", natural),
				zap.String("destination", dest))
		}
		taken[strings.ToLower(dest)] = true
		m.dest[key] = dest
	}

	entries, err := b.resolveSpine(manifest, spine)
	if err != nil {
		return nil, nil, err
	}
	return m, entries, nil
}

func (b *Builder) resolveSpine(manifest []models.ResourceRecord, spine []models.ItemRef) ([]models.SpineEntry, error) {
	byID := make(map[string]models.ResourceRecord, len(manifest))
	for _, r := range manifest {
		id := Normalize(r.ID)
		if _, dup := byID[id]; !dup {
			byID[id] = r
		}
	}

	entries := make([]models.SpineEntry, 0, len(spine))
	for _, ref := range spine {
		r, ok := byID[Normalize(ref.IDRef)]
		if !ok {
			b.log.Warn("spine item not found in manifest", zap.String("idref", ref.IDRef))
			continue
		}
		if !r.IsDocument() {
			b.log.Warn("spine item is not a content document",
				zap.String("idref", ref.IDRef),
				zap.String("media-type", r.MediaType))
			continue
		}
		if b.exists != nil && !b.exists(r.Href) {
			b.log.Warn("spine item missing from archive",
				zap.String("idref", ref.IDRef),
				zap.String("href", r.Href))
			continue
		}
		entries = append(entries, models.SpineEntry{
			Resource: r,
			Index:    len(entries),
			Linear:   ref.Linear,
		})
	}

	if len(entries) == 0 {
		return nil, models.FormatErrorf("spine has no resolvable content documents")
	}
	return entries, nil
}

// naturalDestination is the destination before collision handling.
func naturalDestination(r models.ResourceRecord) string {
	base := Basename(r.Href)
	if r.IsDocument() {
		stem := strings.TrimSuffix(base, path.Ext(base))
		if stem == "" {
			stem = Placeholder
		}
		return DocumentsDir + "/" + stem + DocumentExt
	}
	if base == "" {
		base = Placeholder
	}
	return AssetsDir + "/" + base
}

// Basename returns the percent-decoded final segment of a source reference,
// or "" when there is none.
func Basename(href string) string {
	clean := cleanRef(Decode(href))
	if clean == "" || clean == "." || clean == "/" || strings.HasSuffix(clean, "/") {
		return ""
	}
	base := path.Base(clean)
	if base == "." || base == ".." || base == "/" {
		return ""
	}
	return base
}

func disambiguate(dest string, taken map[string]bool) string {
	if !taken[strings.ToLower(dest)] {
		return dest
	}
	dir, base := path.Split(dest)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%s-%d%s", dir, stem, n, ext)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
