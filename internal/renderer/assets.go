package renderer

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/aymerick/raymond"
)

// frontendFS holds the bundled page templates and the shared stylesheet.
//
//go:embed frontend
var frontendFS embed.FS

const (
	pageTemplatePath     = "frontend/templates/page.hbs"
	navTemplatePath      = "frontend/templates/nav.hbs"
	sharedStylesheetPath = "frontend/css/styles.css"
)

// templates are the parsed front-end files of one renderer
type templates struct {
	page       *raymond.Template
	nav        *raymond.Template
	stylesheet []byte
}

// loadTemplates reads and parses the front-end files from fsys.
// Paths are expected under "frontend/".
func loadTemplates(fsys fs.FS) (*templates, error) {
	if fsys == nil {
		fsys = frontendFS
	}

	page, err := parseTemplate(fsys, pageTemplatePath)
	if err != nil {
		return nil, err
	}
	nav, err := parseTemplate(fsys, navTemplatePath)
	if err != nil {
		return nil, err
	}
	css, err := fs.ReadFile(fsys, sharedStylesheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sharedStylesheetPath, err)
	}

	return &templates{page: page, nav: nav, stylesheet: css}, nil
}

func parseTemplate(fsys fs.FS, name string) (*raymond.Template, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	tpl, err := raymond.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return tpl, nil
}

// pageData fills the slots of page.hbs
type pageData struct {
	Title      string
	Body       string
	Nav        string
	Head       string
	StylesPath string
	Language   string
	TOCPage    bool
	LiveReload string
}

// renderPage wraps already rewritten markup in the site template.
// Body, Nav and Head are inserted verbatim.
func (t *templates) renderPage(d pageData) (string, error) {
	out, err := t.page.Exec(map[string]interface{}{
		"title":       d.Title,
		"body":        d.Body,
		"nav":         d.Nav,
		"head":        d.Head,
		"styles_path": d.StylesPath,
		"language":    d.Language,
		"toc_page":    d.TOCPage,
		"live_reload": d.LiveReload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render page template: %w", err)
	}
	return out, nil
}
