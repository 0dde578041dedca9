package cli

import (
	"fmt"
	"path/filepath"

	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/utils"
)

// InitOptions captures options for writing a new configuration file
type InitOptions struct {
	Dir               string // directory receiving epubweb.toml, default "."
	OutputDir         string
	DisableNavigation bool
	Language          string
	Force             bool // overwrite an existing file
}

const configTemplate = `# epubweb configuration
# Values can be overridden with EPUBWEB_SECTION__KEY environment variables,
# e.g. EPUBWEB_SITE__DISABLE_NAVIGATION=true

[site]
# Output directory; empty means "<book name>.site"
output-dir = %q
# Omit the previous / contents / next bar on chapter pages
disable-navigation = %t
# Show creators, language and description on the index page
show-metadata = %t
# html lang attribute; empty uses the book's own language
language = %q
# Write search-index.json (elasticlunr format) next to index.html
search-index = %t

[labels]
previous = %q
next = %q
contents = %q
# Title for documents without a usable file name
chapter = %q

[log]
# debug, info, warn or error
level = %q
`

// Init writes a commented epubweb.toml and returns its path
func Init(opts InitOptions) (string, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	path := filepath.Join(opts.Dir, config.FileName)
	if utils.FileExists(path) && !opts.Force {
		return "", fmt.Errorf("'%s' already exists, use --force to overwrite", path)
	}

	cfg := config.NewDefaultConfig()
	cfg.Site.OutputDir = opts.OutputDir
	cfg.Site.DisableNavigation = opts.DisableNavigation
	cfg.Site.Language = opts.Language

	content := fmt.Sprintf(configTemplate,
		cfg.Site.OutputDir,
		cfg.Site.DisableNavigation,
		cfg.Site.ShowMetadata,
		cfg.Site.Language,
		cfg.Site.SearchIndex,
		cfg.Labels.Previous,
		cfg.Labels.Next,
		cfg.Labels.Contents,
		cfg.Labels.Chapter,
		cfg.Log.Level,
	)
	if err := utils.WriteFile(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}
