// Package config loads the application configuration from an optional YAML
// file and the environment, then validates it.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/manthysbr/icebreaker/internal/core/domain"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "ICEBREAKER"
	// EnvConfigFile names the variable holding the YAML config path.
	EnvConfigFile = EnvPrefix + "_CONFIG_FILE"

	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "llama3.3:latest"
)

var validate = validator.New()

// Load reads the file named by ICEBREAKER_CONFIG_FILE (if set), applies
// environment overrides and validates the result.
func Load() (*domain.AppConfig, error) {
	return LoadFile(os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*domain.AppConfig, error) {
	cfg := domain.DefaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports the first failure with its
// YAML-style path, e.g. "llm.apikey failed validation for tag 'required_if'".
func Validate(cfg *domain.AppConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		fe := ves[0]
		return fmt.Errorf("invalid config: %s failed validation for tag '%s'", yamlishFieldName(fe), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}

func normalize(cfg *domain.AppConfig) {
	cfg.LLM.Mode = strings.ToLower(strings.TrimSpace(cfg.LLM.Mode))
	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	// Ollama selected without its own endpoint or model keeps the OpenAI
	// defaults otherwise.
	if cfg.LLM.Mode == "ollama" {
		defaults := domain.DefaultConfig().LLM
		if cfg.LLM.BaseURL == defaults.BaseURL {
			cfg.LLM.BaseURL = OllamaDefaultBaseURL
		}
		if cfg.LLM.Model == defaults.Model {
			cfg.LLM.Model = OllamaDefaultModel
		}
	}
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root type name
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

// Masked returns a copy of cfg with every secret replaced by MaskSecret output.
func Masked(cfg *domain.AppConfig) *domain.AppConfig {
	cp := *cfg
	cp.LLM.APIKey = MaskSecret(cfg.LLM.APIKey)
	cp.Search.TavilyKey = MaskSecret(cfg.Search.TavilyKey)
	cp.Search.BraveKey = MaskSecret(cfg.Search.BraveKey)
	cp.Profile.APIKey = MaskSecret(cfg.Profile.APIKey)
	return &cp
}

// MaskSecret returns a masked version safe for display: "****abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// LogLevel maps a config level name to a slog level. Unknown names map to info.
func LogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
