package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"recognizer": {"openai", "mock"},
	"quality":    {"phonics", "mock"},
	"features":   {"praat", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative"))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, fmt.Errorf("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("recognizer", cfg.Providers.Recognizer.Name)
	validateProviderName("quality", cfg.Providers.Quality.Name)
	validateProviderName("features", cfg.Providers.Features.Name)

	// Per-kind requirements.
	if cfg.Providers.Recognizer.Name == "openai" && cfg.Providers.Recognizer.APIKey == "" {
		errs = append(errs, fmt.Errorf("providers.recognizer.api_key is required for the openai recognizer"))
	}
	if cfg.Providers.Quality.Name == "phonics" && cfg.Providers.Quality.BaseURL == "" {
		errs = append(errs, fmt.Errorf("providers.quality.base_url is required for the phonics provider"))
	}
	if cfg.Providers.Features.Name == "praat" && cfg.Providers.Features.BaseURL == "" {
		errs = append(errs, fmt.Errorf("providers.features.base_url is required for the praat provider"))
	}
	for kind, e := range map[string]ProviderEntry{
		"recognizer": cfg.Providers.Recognizer,
		"quality":    cfg.Providers.Quality,
		"features":   cfg.Providers.Features,
	} {
		if e.Timeout < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.timeout must not be negative", kind))
		}
	}

	// Tuning blocks are optional; when present they must be coherent.
	if cfg.Scoring != nil {
		if err := cfg.Scoring.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Prosody != nil {
		if err := cfg.Prosody.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
