package visibility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 80, cfg.FuzzyThreshold)
	assert.Equal(t, 0.85, cfg.NearMatchThreshold)
	assert.Equal(t, Weights{
		FullSource: 50, Domain: 35, CompanyName: 25, ShortName: 20,
		Variant: 15, Fuzzy: 15, NearMatch: 10, Context: 20,
	}, cfg.Weights)
	assert.Contains(t, cfg.PositiveWords, "recommend")
	assert.Contains(t, cfg.NegativeWords, "güvenilmez")
	assert.Contains(t, cfg.RankKeywords.First, "birinci")
	assert.False(t, cfg.NumericRank)
	assert.Equal(t, 1, cfg.MinFuzzyLength)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())

	def := DefaultConfig()
	assert.Equal(t, def.FuzzyThreshold, cfg.FuzzyThreshold)
	assert.Equal(t, def.NearMatchThreshold, cfg.NearMatchThreshold)
	assert.Equal(t, def.PositiveWords, cfg.PositiveWords)
	assert.Equal(t, def.RankKeywords, cfg.RankKeywords)
	assert.Equal(t, def.Weights, cfg.Weights)
	assert.Equal(t, "und", cfg.Language)
}

func TestConfig_ValidateKeepsExplicitZeroThresholds(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantFuzz int
		wantNear float64
	}{
		{"zero fuzzy", func(c *Config) { c.FuzzyThreshold = 0 }, 0, 0.85},
		{"zero near", func(c *Config) { c.NearMatchThreshold = 0 }, 80, 0},
		{"both zero", func(c *Config) {
			c.FuzzyThreshold = 0
			c.NearMatchThreshold = 0
		}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.wantFuzz, cfg.FuzzyThreshold)
			assert.Equal(t, tt.wantNear, cfg.NearMatchThreshold)
		})
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fuzzy above 100", func(c *Config) { c.FuzzyThreshold = 101 }},
		{"fuzzy negative", func(c *Config) { c.FuzzyThreshold = -1 }},
		{"near above 1", func(c *Config) { c.NearMatchThreshold = 1.5 }},
		{"negative min length", func(c *Config) { c.MinFuzzyLength = -2 }},
		{"bad language", func(c *Config) { c.Language = "not a language tag" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := `
fuzzy_threshold: 90
numeric_rank: true
language: tr
positive_words: [harika, superb]
brand_aliases:
  acme: [acme corp]
weights:
  full_source: 40
  domain: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.FuzzyThreshold)
	assert.True(t, cfg.NumericRank)
	assert.Equal(t, "tr", cfg.Language)
	assert.Equal(t, []string{"harika", "superb"}, cfg.PositiveWords)
	// Untouched keys keep defaults.
	assert.Equal(t, DefaultConfig().NegativeWords, cfg.NegativeWords)
	assert.Equal(t, 0.85, cfg.NearMatchThreshold)
	assert.Equal(t, 1, cfg.MinFuzzyLength)
	// Map keys merge with the default alias table.
	assert.Equal(t, []string{"acme corp"}, cfg.BrandAliases["acme"])
	assert.Contains(t, cfg.BrandAliases, "workexe")
	assert.Equal(t, 40, cfg.Weights.FullSource)
	assert.Equal(t, 30, cfg.Weights.Domain)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fuzzy_threshold: [oops"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "range.yaml")
	require.NoError(t, os.WriteFile(path, []byte("near_match_threshold: 3"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFile_ZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fuzzy_threshold: 0\nnear_match_threshold: 0\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FuzzyThreshold)
	assert.Equal(t, 0.0, cfg.NearMatchThreshold)
}
