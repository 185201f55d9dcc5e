package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestDefault_SourceValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(24), cfg.TickWindow)
	assert.Equal(t, int64(300), cfg.JaccardInclusion)
	assert.Equal(t, int64(200), cfg.JaccardDivergence)
	assert.Equal(t, int64(2), cfg.DormantAfter)
	assert.Equal(t, int64(3), cfg.UnresolvedAfter)
	assert.Equal(t, int64(10), cfg.VanishedAfter)
	assert.Equal(t, ModeStrict, cfg.Mode)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	content := []byte("tick_window: 6\nmode: trusted\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), cfg.TickWindow)
	assert.Equal(t, ModeTrusted, cfg.Mode)
	// Untouched keys keep their defaults.
	assert.Equal(t, int64(300), cfg.JaccardInclusion)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick window", func(c *Config) { c.TickWindow = 0 }},
		{"negative inclusion", func(c *Config) { c.JaccardInclusion = -1 }},
		{"inclusion above 1000", func(c *Config) { c.JaccardInclusion = 1001 }},
		{"unknown mode", func(c *Config) { c.Mode = "lenient" }},
		{"unordered lifecycle", func(c *Config) { c.UnresolvedAfter = 1 }},
		{"vanish before unresolved", func(c *Config) { c.VanishedAfter = 3 }},
		{"divergence above inclusion", func(c *Config) { c.JaccardDivergence = 400 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
