package tracelink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, MatchUnset, cfg.MatchType)
	assert.Equal(t, DefaultMinScore, cfg.Thresholds.MinScore)
	assert.Equal(t, DefaultRelativeFactor, cfg.Thresholds.RelativeFactor)
	assert.True(t, cfg.Normalize.Stem)
	assert.Equal(t, "input/high.csv", cfg.Input.High)
	assert.Equal(t, "input/low.csv", cfg.Input.Low)
	assert.Equal(t, "input/links.csv", cfg.Input.Reference)
	assert.Equal(t, "output/links.csv", cfg.Output.Links)

	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	assert.NoError(t, cfg.ValidateSettings())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracelink.yaml")
	data := `match_type: 2
thresholds:
  relative_factor: 0.5
workers: 4
normalize:
  stem: false
input:
  high: data/high.csv
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, MatchRelative, cfg.MatchType)
	assert.Equal(t, 0.5, cfg.Thresholds.RelativeFactor)
	assert.Equal(t, DefaultMinScore, cfg.Thresholds.MinScore)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Normalize.Stem)
	assert.Equal(t, "data/high.csv", cfg.Input.High)
	assert.Equal(t, "input/low.csv", cfg.Input.Low)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, LinkPolicy{MatchType: MatchRelative, MinScore: DefaultMinScore, RelativeFactor: 0.5}, cfg.LinkPolicy())
}

func TestLoadConfigKeepsExplicitZero(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ThresholdConfig
		ref  string
	}{
		{
			name: "min score",
			data: "match_type: 1\nthresholds:\n  min_score: 0\n",
			want: ThresholdConfig{MinScore: 0, RelativeFactor: DefaultRelativeFactor},
			ref:  "input/links.csv",
		},
		{
			name: "relative factor",
			data: "match_type: 2\nthresholds:\n  relative_factor: 0\n",
			want: ThresholdConfig{MinScore: DefaultMinScore, RelativeFactor: 0},
			ref:  "input/links.csv",
		},
		{
			name: "no reference",
			data: "match_type: 0\ninput:\n  reference: \"\"\n",
			want: ThresholdConfig{MinScore: DefaultMinScore, RelativeFactor: DefaultRelativeFactor},
			ref:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tracelink.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Thresholds)
			assert.Equal(t, tt.ref, cfg.Input.Reference)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match_type: [1"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracelink.yaml")
	cfg := DefaultConfig()
	cfg.MatchType = MatchCombined
	cfg.Workers = 3
	require.NoError(t, SaveConfig(path, cfg))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "match type too large", mutate: func(c *Config) { c.MatchType = 7 }, field: "match_type"},
		{name: "min score", mutate: func(c *Config) { c.Thresholds.MinScore = 1.5 }, field: "thresholds.min_score"},
		{name: "relative factor", mutate: func(c *Config) { c.Thresholds.RelativeFactor = -0.2 }, field: "thresholds.relative_factor"},
		{name: "workers", mutate: func(c *Config) { c.Workers = -1 }, field: "workers"},
		{name: "token length", mutate: func(c *Config) { c.Normalize.MinTokenLength = -2 }, field: "normalize.min_token_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MatchType = MatchAbsolute
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrConfiguration)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}
