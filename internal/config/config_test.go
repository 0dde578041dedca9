package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "", cfg.Site.OutputDir)
	assert.False(t, cfg.Site.DisableNavigation)
	assert.True(t, cfg.Site.ShowMetadata)
	assert.Equal(t, "Contents", cfg.Labels.Contents)
	assert.Equal(t, "Chapter 3", cfg.Labels.ChapterTitle(3))
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromStringAndGetters(t *testing.T) {
	toml := `
[site]
output-dir = "out"
disable-navigation = true
language = "ja"
search-index = true

[labels]
chapter = "第 %d 章"
previous = "前へ"

[log]
level = "debug"
`

	cfg, err := LoadFromString(toml)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Site.OutputDir)
	assert.True(t, cfg.Site.DisableNavigation)
	assert.True(t, cfg.Site.ShowMetadata, "unset keys keep their defaults")
	assert.Equal(t, "第 2 章", cfg.Labels.ChapterTitle(2))
	assert.Equal(t, "前へ", cfg.Labels.Previous)
	assert.Equal(t, "Next »", cfg.Labels.Next)

	assert.Equal(t, "ja", cfg.GetString("site.language", ""))
	assert.True(t, cfg.GetBool("site.disable-navigation", false))
	assert.True(t, cfg.GetBool("site.search-index", false))
	assert.Equal(t, "fallback", cfg.GetString("site.nope", "fallback"))
	assert.Equal(t, "debug", cfg.GetString("log.level", ""))
}

func TestLoadFromStringRejectsInvalidToml(t *testing.T) {
	_, err := LoadFromString("[site\noutput-dir = ")
	require.Error(t, err)
}

func TestChapterTitleWithoutVerb(t *testing.T) {
	l := LabelsConfig{Chapter: "Part"}
	assert.Equal(t, "Part 4", l.ChapterTitle(4))
}

func TestUpdateFromEnv(t *testing.T) {
	t.Setenv("EPUBWEB_SITE__OUTPUT_DIR", "env-site")
	t.Setenv("EPUBWEB_SITE__DISABLE-NAVIGATION", "true")
	t.Setenv("EPUBWEB_LABELS__CONTENTS", "Index")

	cfg := NewDefaultConfig()
	cfg.UpdateFromEnv()

	assert.Equal(t, "env-site", cfg.Site.OutputDir)
	assert.True(t, cfg.Site.DisableNavigation)
	assert.Equal(t, "Index", cfg.Labels.Contents)
}

func TestSetUnknownKey(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.Set("site.nope", "x"))
	assert.False(t, cfg.Set("nosection", "x"))
	assert.True(t, cfg.Set("Log.Level", "warn"))
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, FileName)

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Labels, cfg.Labels)

	_, err = Load(missing, true)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(missing, []byte("[site]\nshow-metadata = false\n"), 0o644))
	cfg, err = Load(missing, true)
	require.NoError(t, err)
	assert.False(t, cfg.Site.ShowMetadata)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Site.OutputDir = "public"

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Regexp(t, `output-dir = ['"]public['"]`, string(data))

	back, err := LoadFromString(string(data))
	require.NoError(t, err)
	assert.Equal(t, "public", back.Site.OutputDir)
}
