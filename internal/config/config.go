// Package config provides the configuration schema and loader for the
// elocute pronunciation analysis server.
package config

import (
	"time"

	"github.com/MrWong99/elocute/pkg/prosody"
	"github.com/MrWong99/elocute/pkg/score"
)

// LogLevel controls log verbosity for the elocute server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler used by the server.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogText || f == LogJSON
}

// Config is the root configuration structure for elocute.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Lexicon   LexiconConfig       `yaml:"lexicon"`
	Providers ProvidersConfig     `yaml:"providers"`
	Scoring   *score.Config       `yaml:"scoring"`
	Prosody   *prosody.Thresholds `yaml:"prosody"`
}

// ServerConfig holds network and logging settings for the elocute server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or JSON log output. Defaults to text.
	LogFormat LogFormat `yaml:"log_format"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to 15s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// LexiconConfig configures pronunciation lookup.
type LexiconConfig struct {
	// DictionaryPath points to a CMU-format pronouncing dictionary file.
	// When empty, the embedded base dictionary is used.
	DictionaryPath string `yaml:"dictionary_path"`

	// GuesserLanguage is the grapheme-to-phoneme language model used for
	// out-of-dictionary words. Defaults to "English". Set to "off" to
	// disable the guesser entirely.
	GuesserLanguage string `yaml:"guesser_language"`
}

// ProvidersConfig declares the external service providers, one per pipeline
// concern.
type ProvidersConfig struct {
	Recognizer ProviderEntry `yaml:"recognizer"`
	Quality    ProviderEntry `yaml:"quality"`
	Features   ProviderEntry `yaml:"features"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "openai", "phonics",
	// "praat", "mock").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "whisper-1").
	Model string `yaml:"model"`

	// Language hints the spoken language where the provider supports it.
	Language string `yaml:"language"`

	// Timeout bounds each call to this provider. Zero uses the provider's
	// built-in default.
	Timeout time.Duration `yaml:"timeout"`
}
