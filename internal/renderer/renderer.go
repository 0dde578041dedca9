package renderer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/models"
	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/rewriter"
	"github.com/geocine/epubweb/internal/search"
	"github.com/geocine/epubweb/internal/utils"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// EntryReader reads archive entries by their path inside the container
type EntryReader interface {
	Has(name string) bool
	ReadEntry(name string) ([]byte, error)
	OpenEntry(name string) (io.ReadCloser, error)
}

// RenderContext holds context for rendering
type RenderContext struct {
	Book    *models.Book
	Archive EntryReader
	Config  *config.Config
	// DestDir is the output root. It is destroyed and recreated.
	DestDir string
	Logger  *zap.Logger
	// LiveReloadEndpointPath adds an event stream listener to every page when set
	LiveReloadEndpointPath string
	// AssetsFS optionally replaces the bundled front-end files (expects paths under "frontend/")
	AssetsFS fs.FS
}

// Summary counts what a run wrote
type Summary struct {
	Documents   int
	Stylesheets int
	Assets      int
	SpineLength int
}

// HtmlRenderer converts a book into a static site
type HtmlRenderer struct {
	markdown goldmark.Markdown
	cfg      *config.Config
	log      *zap.Logger
	tpl      *templates
}

// NewHtmlRenderer creates a new HTML renderer
func NewHtmlRenderer() *HtmlRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
		),
		goldmark.WithRendererOptions(
			ghtml.WithUnsafe(),
		),
	)
	return &HtmlRenderer{markdown: md}
}

// run is the state of one conversion. The path map and spine are frozen
// before any resource is written.
type run struct {
	ctx       *RenderContext
	pm        *pathmap.PathMap
	entries   []models.SpineEntry
	documents *rewriter.DocumentTransformer
	css       *rewriter.StylesheetTransformer
	nav       *NavBuilder
	written   map[string]bool
	search    *search.Index // nil unless site.search-index is set
	summary   Summary
}

// Render converts ctx.Book into a site below ctx.DestDir.
//
// Stages run in order: output reset, path map, stylesheets, binary assets,
// documents, shared stylesheet, table of contents, then the search index when
// enabled. Spine documents missing from the archive are left out of the
// reading order. Any other archive read or write failure aborts the run; the
// output directory is then incomplete.
func (r *HtmlRenderer) Render(ctx *RenderContext) (*Summary, error) {
	if ctx.Book == nil || ctx.Archive == nil {
		return nil, fmt.Errorf("render context requires a book and an archive")
	}
	r.cfg = ctx.Config
	if r.cfg == nil {
		r.cfg = config.NewDefaultConfig()
	}
	r.log = ctx.Logger
	if r.log == nil {
		r.log = zap.NewNop()
	}

	tpl, err := loadTemplates(ctx.AssetsFS)
	if err != nil {
		return nil, err
	}
	r.tpl = tpl

	if err := checkDestDir(ctx.DestDir); err != nil {
		return nil, err
	}
	r.stage("reset output", zap.String("dir", ctx.DestDir))
	if err := utils.ResetDir(ctx.DestDir); err != nil {
		return nil, err
	}

	r.stage("path map")
	pm, entries, err := pathmap.NewBuilder(r.log).
		WithEntryCheck(func(href string) bool {
			return ctx.Archive.Has(ctx.Book.ArchivePath(href))
		}).
		Build(ctx.Book.Manifest, ctx.Book.Spine)
	if err != nil {
		return nil, err
	}

	resolver := rewriter.NewResolver(pm, r.log)
	st := &run{
		ctx:       ctx,
		pm:        pm,
		entries:   entries,
		documents: rewriter.NewDocumentTransformer(resolver, r.log),
		css:       rewriter.NewStylesheetTransformer(resolver),
		nav:       newNavBuilder(tpl, r.cfg),
		written:   make(map[string]bool),
	}
	st.summary.SpineLength = len(entries)
	if r.cfg.Site.SearchIndex {
		st.search = search.NewIndex()
	}

	r.stage("stylesheets")
	if err := r.copyStylesheets(st); err != nil {
		return nil, err
	}

	r.stage("assets")
	if err := r.copyAssets(st); err != nil {
		return nil, err
	}

	r.stage("documents", zap.Int("spine", len(entries)))
	if err := r.renderDocuments(st); err != nil {
		return nil, err
	}

	r.stage("shared stylesheet")
	if err := utils.WriteFile(st.outPath(pathmap.SharedStylesheet), tpl.stylesheet); err != nil {
		return nil, err
	}

	r.stage("table of contents")
	if err := r.renderIndex(st); err != nil {
		return nil, err
	}

	if st.search != nil {
		r.stage("search index", zap.Int("pages", st.search.Len()))
		if err := writeSearchIndex(st); err != nil {
			return nil, err
		}
	}

	return &st.summary, nil
}

func (r *HtmlRenderer) stage(name string, fields ...zap.Field) {
	r.log.Info("converting", append([]zap.Field{zap.String("stage", name)}, fields...)...)
}

// outPath maps a destination path to the filesystem
func (st *run) outPath(dest string) string {
	return filepath.Join(st.ctx.DestDir, filepath.FromSlash(dest))
}

// claim reports whether the resource behind href still needs to be written.
// Manifest entries sharing a source key share one destination.
func (st *run) claim(href string) (string, bool) {
	key := pathmap.SourceKey(href)
	if st.written[key] {
		return "", false
	}
	st.written[key] = true
	dest, ok := st.pm.Lookup(key)
	return dest, ok
}

func (st *run) read(r models.ResourceRecord) ([]byte, error) {
	name := st.ctx.Book.ArchivePath(r.Href)
	data, err := st.ctx.Archive.ReadEntry(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s' (%s): %w", name, r.ID, err)
	}
	return data, nil
}

func (st *run) rewriteContext(r models.ResourceRecord, dest string, index int) rewriter.RewriteContext {
	return rewriter.RewriteContext{
		SourceKey: pathmap.SourceKey(r.Href),
		SourceDir: r.Dir(),
		Dest:      dest,
		Index:     index,
	}
}

func (r *HtmlRenderer) copyStylesheets(st *run) error {
	for _, res := range st.ctx.Book.Manifest {
		if !res.IsStylesheet() {
			continue
		}
		dest, ok := st.claim(res.Href)
		if !ok {
			continue
		}
		data, err := st.read(res)
		if err != nil {
			return err
		}
		out := st.css.Transform(st.rewriteContext(res, dest, -1), data)
		if err := utils.WriteFile(st.outPath(dest), out); err != nil {
			return err
		}
		st.summary.Stylesheets++
	}
	return nil
}

func (r *HtmlRenderer) copyAssets(st *run) error {
	for _, res := range st.ctx.Book.Manifest {
		if res.IsDocument() || res.IsStylesheet() {
			continue
		}
		dest, ok := st.claim(res.Href)
		if !ok {
			continue
		}
		if err := r.copyAsset(st, res, dest); err != nil {
			return err
		}
		st.summary.Assets++
	}
	return nil
}

func (r *HtmlRenderer) copyAsset(st *run, res models.ResourceRecord, dest string) error {
	name := st.ctx.Book.ArchivePath(res.Href)
	rc, err := st.ctx.Archive.OpenEntry(name)
	if err != nil {
		return fmt.Errorf("failed to read '%s' (%s): %w", name, res.ID, err)
	}
	defer rc.Close()
	return utils.WriteFrom(st.outPath(dest), rc)
}

// renderDocuments writes every spine occurrence, then the manifest documents
// outside the spine so links into them still land on a page.
func (r *HtmlRenderer) renderDocuments(st *run) error {
	inSpine := make(map[string]bool, len(st.entries))
	for _, e := range st.entries {
		inSpine[pathmap.SourceKey(e.Resource.Href)] = true
	}

	for _, e := range st.entries {
		dest, ok := st.pm.Destination(e.Resource.Href)
		if !ok {
			return fmt.Errorf("spine entry '%s' has no destination", e.Resource.Href)
		}
		if err := r.renderDocument(st, e.Resource, dest, e.Index, e.Number()); err != nil {
			return err
		}
		if key := pathmap.SourceKey(e.Resource.Href); !st.written[key] {
			st.written[key] = true
			st.summary.Documents++
		}
	}

	for _, res := range st.ctx.Book.Manifest {
		if !res.IsDocument() || inSpine[pathmap.SourceKey(res.Href)] {
			continue
		}
		if !st.ctx.Archive.Has(st.ctx.Book.ArchivePath(res.Href)) {
			r.log.Debug("document missing from archive, no page written", zap.String("href", res.Href))
			continue
		}
		dest, ok := st.claim(res.Href)
		if !ok {
			continue
		}
		r.log.Debug("document outside the spine", zap.String("href", res.Href))
		if err := r.renderDocument(st, res, dest, -1, 0); err != nil {
			return err
		}
		st.summary.Documents++
	}
	return nil
}

// renderDocument rewrites one content document and writes its page.
// number feeds the ordinal title fallback; it is 0 outside the spine.
func (r *HtmlRenderer) renderDocument(st *run, res models.ResourceRecord, dest string, index, number int) error {
	data, err := st.read(res)
	if err != nil {
		return err
	}

	doc := st.documents.Transform(st.rewriteContext(res, dest, index), data)
	title := DisplayTitle(dest, number, r.cfg.Labels)
	if st.search != nil {
		addToSearch(st.search, dest, title, doc)
	}

	nav, err := st.nav.Build(index, dest, st.entries, st.pm)
	if err != nil {
		return err
	}

	page, err := r.tpl.renderPage(pageData{
		Title:      title,
		Body:       doc.Body,
		Nav:        nav,
		Head:       doc.Head,
		StylesPath: utils.HrefTo(utils.SlashDir(dest), pathmap.SharedStylesheet),
		Language:   r.language(doc.Lang, st.ctx.Book),
		LiveReload: st.ctx.LiveReloadEndpointPath,
	})
	if err != nil {
		return fmt.Errorf("failed to render '%s': %w", res.Href, err)
	}

	return utils.WriteFile(st.outPath(dest), []byte(page))
}

// renderIndex writes the table of contents page
func (r *HtmlRenderer) renderIndex(st *run) error {
	entries, err := r.tocEntries(st.entries, st.pm)
	if err != nil {
		return err
	}

	book := st.ctx.Book
	title := book.Metadata.FirstTitle(r.cfg.Labels.Contents)
	body, err := r.tocBody(title, book.Metadata, entries)
	if err != nil {
		return err
	}

	page, err := r.tpl.renderPage(pageData{
		Title:      title,
		Body:       body,
		StylesPath: utils.HrefTo("", pathmap.SharedStylesheet),
		Language:   r.language("", book),
		TOCPage:    true,
		LiveReload: st.ctx.LiveReloadEndpointPath,
	})
	if err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	return utils.WriteFile(st.outPath(pathmap.IndexFile), []byte(page))
}

// language picks the html lang attribute: configuration, then the
// document's own declaration, then the package metadata.
func (r *HtmlRenderer) language(docLang string, book *models.Book) string {
	if r.cfg.Site.Language != "" {
		return r.cfg.Site.Language
	}
	if docLang != "" {
		return docLang
	}
	return book.Metadata.FirstLanguage("en")
}

// checkDestDir refuses output directories whose reset would destroy the
// working directory or the filesystem root.
func checkDestDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output directory is not set")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory '%s': %w", dir, err)
	}
	if abs == filepath.Dir(abs) {
		return fmt.Errorf("refusing to use '%s' as output directory", dir)
	}
	if cwd, err := os.Getwd(); err == nil {
		rel, err := filepath.Rel(abs, cwd)
		if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
			return fmt.Errorf("refusing to use '%s' as output directory: it contains the working directory", dir)
		}
	}
	return nil
}
