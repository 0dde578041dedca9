package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/geocine/epubweb/internal/models"
)

// Output formats accepted by Meta
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// bookInfo is the serialized form of the meta command output
type bookInfo struct {
	Title       []string `yaml:"title,omitempty"`
	Creators    []string `yaml:"creators,omitempty"`
	Language    []string `yaml:"language,omitempty"`
	Identifier  []string `yaml:"identifier,omitempty"`
	Publisher   []string `yaml:"publisher,omitempty"`
	Date        []string `yaml:"date,omitempty"`
	Subject     []string `yaml:"subject,omitempty"`
	Description []string `yaml:"description,omitempty"`
	Version     string   `yaml:"version,omitempty"`
	Package     string   `yaml:"package"`
	Manifest    int      `yaml:"manifest"`
	Spine       int      `yaml:"spine"`
}

func newBookInfo(book *models.Book) bookInfo {
	m := book.Metadata
	return bookInfo{
		Title:       m.Title,
		Creators:    m.Creator,
		Language:    m.Language,
		Identifier:  m.Identifier,
		Publisher:   m.Publisher,
		Date:        m.Date,
		Subject:     m.Subject,
		Description: m.Description,
		Version:     book.Version,
		Package:     book.PackagePath,
		Manifest:    len(book.Manifest),
		Spine:       len(book.Spine),
	}
}

// Meta prints the book's bibliographic metadata in the requested format
func Meta(w io.Writer, book *models.Book, format string) error {
	info := newBookInfo(book)
	switch strings.ToLower(format) {
	case "", FormatText:
		return writeMetaText(w, info)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format '%s' (want text or yaml)", format)
	}
}

func writeMetaText(w io.Writer, info bookInfo) error {
	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	rule := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	fmt.Fprintln(&b, rule("--- EPUB Metadata ---"))
	line := func(name string, values []string) {
		v := strings.Join(values, ", ")
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "%s %s\n", label(name+":"), v)
	}
	line("Title", info.Title)
	line("Author(s)", info.Creators)
	line("Language", info.Language)
	line("Identifier", info.Identifier)
	if len(info.Publisher) > 0 {
		line("Publisher", info.Publisher)
	}
	if len(info.Date) > 0 {
		line("Date", info.Date)
	}
	if len(info.Subject) > 0 {
		line("Subject", info.Subject)
	}
	if len(info.Description) > 0 {
		line("Description", info.Description)
	}
	if info.Version != "" {
		line("EPUB version", []string{info.Version})
	}
	fmt.Fprintf(&b, "%s %d items, %d in reading order\n", label("Manifest:"), info.Manifest, info.Spine)
	fmt.Fprintln(&b, rule("---------------------"))

	_, err := io.WriteString(w, b.String())
	return err
}
