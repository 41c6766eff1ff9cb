package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConnectStr(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "decks", Options: "-c search_path=deck"}
	assert.Equal(t, "postgres://u:p@db:5432/decks?sslmode=disable&options=-c%20search_path=deck", c.GetConnectStr())
	assert.True(t, c.Enabled())

	c = DatabaseConfig{URL: "postgres://x"}
	assert.Equal(t, "postgres://x", c.GetConnectStr())

	assert.False(t, (&DatabaseConfig{}).Enabled())
}

func TestLoadConfigDefaultsAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EXPORT_MAX_GROUP_DEPTH", "8")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("out", "", "")
	flags.String("md", "", "")
	flags.String("json", "", "")
	flags.String("asset-prefix", "", "")
	require.NoError(t, flags.Parse([]string{"--out", "img", "--md", "deck.md", "--json", "deck.json", "--asset-prefix", "/a"}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "img", cfg.Export.ImagesDir)
	assert.Equal(t, "deck.md", cfg.Export.MarkdownPath)
	assert.Equal(t, "deck.json", cfg.Export.JSONPath)
	assert.Equal(t, "/a/", cfg.Export.AssetPrefix)
	assert.Equal(t, 8, cfg.Export.MaxGroupDepth)
	assert.Equal(t, 64, cfg.Export.PartCacheSize)
	assert.Equal(t, 8080, cfg.Application.Port)
	assert.Equal(t, filepath.Join("public", "slides"), cfg.PublicSlidesDir())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
application:
  port: 9090
  storage:
    stage: incoming
export:
  asset_prefix: /cdn/slides/
`), 0644))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Application.Port)
	assert.Equal(t, "incoming", cfg.Application.Storage.Stage)
	assert.Equal(t, "/cdn/slides/", cfg.Export.AssetPrefix)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--config", "nope.yaml"}))

	_, err := LoadConfig(flags)
	assert.Error(t, err)
}

func TestLoadConfigMalformedDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("application: [unclosed\n"), 0644))

	_, err := LoadConfig(nil)
	assert.Error(t, err)
}

func TestLoadConfigQuietWithoutEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	_, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
