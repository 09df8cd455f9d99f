package tracelink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "tracelink.yaml"

var configValidate = validator.New()

// LoadConfig loads configuration from the given path or the default tracelink.yaml.
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Validate checks the config and reports the first offending field as a
// *ConfigurationError.
func (c Config) Validate() error {
	return validationError(configValidate.Struct(c))
}

// ValidateSettings checks everything except the match type, for commands that
// never link.
func (c Config) ValidateSettings() error {
	return validationError(configValidate.StructExcept(c, "MatchType"))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Reason: err.Error()}
	}
	fe := verrs[0]
	field := yamlFieldPath(fe.StructNamespace())
	if fe.StructField() == "MatchType" {
		return &ConfigurationError{Field: field, Value: fe.Value(), Reason: "must be one of 0, 1, 2, 3"}
	}
	return &ConfigurationError{Field: field, Value: fe.Value(), Reason: fmt.Sprintf("failed %q constraint", fe.Tag())}
}

var yamlFieldNames = map[string]string{
	"MatchType":      "match_type",
	"Thresholds":     "thresholds",
	"MinScore":       "min_score",
	"RelativeFactor": "relative_factor",
	"Workers":        "workers",
	"Normalize":      "normalize",
	"MinTokenLength": "min_token_length",
}

// yamlFieldPath turns "Config.Thresholds.MinScore" into "thresholds.min_score".
func yamlFieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if name, ok := yamlFieldNames[p]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, ".")
}
