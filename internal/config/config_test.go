package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/checker"
	"quill/internal/segment"
	"quill/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "auto", cfg.Check.Language)
	assert.Equal(t, checker.DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, DefaultTimeout, cfg.Server.Timeout.Duration)
	assert.Equal(t, source.UnitCodepoint, cfg.Unit())
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[server]
url = "http://lt.internal:8010"
timeout = "5s"

[check]
language = "en-us"
max_chunk = 2000
jobs = 2
offsets = "utf16"
level = "picky"
disabled_rules = ["WHITESPACE_RULE"]

[nodes.Heading]
mode = "transform"
as = "Title"

[nodes.FencedCodeBlock]
mode = "include"
`)
	nested := filepath.Join(root, "docs", "guide")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), cfg.Path)
	assert.Equal(t, "http://lt.internal:8010", cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout.Duration)
	assert.Equal(t, "en-US", cfg.Check.Language)
	assert.Equal(t, source.UnitUTF16, cfg.Unit())

	opts, err := cfg.CheckOptions()
	require.NoError(t, err)
	assert.Equal(t, 2000, opts.MaxChunk)
	assert.Equal(t, 2, opts.Jobs)
	assert.Equal(t, "picky", opts.Level)
	assert.Equal(t, []string{"WHITESPACE_RULE"}, opts.DisabledRules)
	assert.Equal(t, segment.Rule{Mode: segment.ModeTransform, As: "Title"}, opts.Rules.For("Heading"))
	assert.Equal(t, segment.ModeInclude, opts.Rules.For("FencedCodeBlock").Mode)
	assert.Equal(t, segment.ModeExclude, opts.Rules.For("HTMLBlock").Mode)
	assert.Equal(t, "http://lt.internal:8010", cfg.Client().BaseURL())
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "auto", cfg.Check.Language)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[check]\nlanguages = \"en\"\n",
		"bad language": "[check]\nlanguage = \"not a tag!\"\n",
		"bad offsets":  "[check]\noffsets = \"bytes\"\n",
		"bad level":    "[check]\nlevel = \"strict\"\n",
		"bad mode":     "[nodes.Heading]\nmode = \"drop\"\n",
		"bad timeout":  "[server]\ntimeout = \"soon\"\n",
		"empty url":    "[server]\nurl = \"\"\n",
		"syntax":       "[check\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QUILL_SERVER_URL": "https://api.languagetoolplus.com",
		"QUILL_USERNAME":   "me@example.org",
		"QUILL_API_KEY":    "k",
		"QUILL_LANGUAGE":   "de_DE",
		"QUILL_TIMEOUT":    "1m",
		"QUILL_JOBS":       "8",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "https://api.languagetoolplus.com", cfg.Server.URL)
	assert.Equal(t, "me@example.org", cfg.Server.Username)
	assert.Equal(t, "k", cfg.Server.APIKey)
	assert.Equal(t, "de-DE", cfg.Check.Language)
	assert.Equal(t, time.Minute, cfg.Server.Timeout.Duration)
	assert.Equal(t, 8, cfg.Check.Jobs)

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(func(string) string { return "" }))
	assert.Equal(t, checker.DefaultServerURL, cfg.Server.URL)

	cfg = Default()
	assert.Error(t, cfg.ApplyEnv(func(k string) string {
		if k == "QUILL_JOBS" {
			return "many"
		}
		return ""
	}))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(dir))

	writeFile(t, filepath.Join(dir, ".env"), "QUILL_TEST_DOTENV=from-file\n")
	t.Setenv("QUILL_TEST_DOTENV", "")
	os.Unsetenv("QUILL_TEST_DOTENV")
	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("QUILL_TEST_DOTENV"))
}

func TestNormalizeLanguage(t *testing.T) {
	for in, want := range map[string]string{"": "auto", "AUTO": "auto", "en": "en", "pt-br": "pt-BR", "de_CH": "de-CH"} {
		got, err := NormalizeLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeLanguage("x!")
	assert.Error(t, err)
}
