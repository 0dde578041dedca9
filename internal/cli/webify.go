package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/loader"
	"github.com/geocine/epubweb/internal/logging"
	"github.com/geocine/epubweb/internal/renderer"
)

// SiteSuffix is appended to the book's file stem when no output directory is given
const SiteSuffix = ".site"

// WebifyOptions drives a single conversion
type WebifyOptions struct {
	EpubPath string
	// OutputDir overrides site.output-dir
	OutputDir string
	// NoNav forces navigation off regardless of configuration
	NoNav bool
	// ConfigPath is read when present; Explicit makes a missing file an error
	ConfigPath string
	Explicit   bool
	// LogLevel overrides log.level
	LogLevel string
	// Logger replaces the configured console logger
	Logger *zap.Logger
	// LiveReloadPath is set by serve to inject the reload listener
	LiveReloadPath string
}

// WebifyResult reports where the site was written
type WebifyResult struct {
	OutputDir string
	Summary   *renderer.Summary
}

// LoadConfig resolves configuration for a command, applying the CLI overrides
func LoadConfig(path string, explicit bool) (*config.Config, error) {
	if path == "" {
		path = config.FileName
	}
	return config.Load(path, explicit)
}

// Webify converts an archive into a static site
func Webify(opts WebifyOptions) (*WebifyResult, error) {
	if opts.EpubPath == "" {
		return nil, fmt.Errorf("no input file given")
	}

	cfg, err := LoadConfig(opts.ConfigPath, opts.Explicit)
	if err != nil {
		return nil, err
	}
	if opts.NoNav {
		cfg.Site.DisableNavigation = true
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	log := opts.Logger
	if log == nil {
		if log, err = logging.New(cfg.Log.Level); err != nil {
			return nil, err
		}
		defer log.Sync()
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = cfg.Site.OutputDir
	}
	if outDir == "" {
		outDir = DefaultDir(opts.EpubPath, SiteSuffix)
	}

	loaded, err := loader.LoadBook(opts.EpubPath, log)
	if err != nil {
		return nil, err
	}
	defer loaded.Close()

	summary, err := renderer.NewHtmlRenderer().Render(&renderer.RenderContext{
		Book:    loaded.Book,
		Archive: loaded.Archive,
		Config:  cfg,
		DestDir: outDir,
		Logger:  log,

		LiveReloadEndpointPath: opts.LiveReloadPath,
	})
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}
	return &WebifyResult{OutputDir: outDir, Summary: summary}, nil
}
