// Command elocute runs the pronunciation analysis server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/elocute/internal/analyzer"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/health"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/server"
	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/lexicon/goruut"
	"github.com/MrWong99/elocute/pkg/provider/features"
	featmock "github.com/MrWong99/elocute/pkg/provider/features/mock"
	"github.com/MrWong99/elocute/pkg/provider/features/praat"
	"github.com/MrWong99/elocute/pkg/provider/quality"
	qualmock "github.com/MrWong99/elocute/pkg/provider/quality/mock"
	"github.com/MrWong99/elocute/pkg/provider/quality/phonics"
	"github.com/MrWong99/elocute/pkg/provider/recognizer"
	recmock "github.com/MrWong99/elocute/pkg/provider/recognizer/mock"
	"github.com/MrWong99/elocute/pkg/provider/recognizer/openai"
)

const (
	defaultListenAddr      = ":8080"
	defaultShutdownTimeout = 15 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "elocute: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "elocute: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(logger)

	slog.Info("elocute starting",
		"config", *configPath,
		"listen_addr", listenAddr(cfg),
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first so every later component records into it.
	otelShutdown, err := observe.Setup(ctx, observe.Options{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	lex, err := buildLexicon(cfg.Lexicon)
	if err != nil {
		slog.Error("failed to build lexicon", "err", err)
		return 1
	}
	slog.Info("lexicon loaded", "entries", lex.Len())

	rec, err := buildRecognizer(cfg.Providers.Recognizer)
	if err != nil {
		slog.Error("failed to build recognizer", "err", err)
		return 1
	}
	qual, err := buildQuality(cfg.Providers.Quality)
	if err != nil {
		slog.Error("failed to build quality provider", "err", err)
		return 1
	}
	feat, err := buildFeatures(cfg.Providers.Features)
	if err != nil {
		slog.Error("failed to build feature extractor", "err", err)
		return 1
	}
	slog.Info("providers ready",
		"recognizer", rec.Name(),
		"quality", qual.Name(),
		"features", feat.Name(),
	)

	var analyzerOpts []analyzer.Option
	if cfg.Scoring != nil {
		analyzerOpts = append(analyzerOpts, analyzer.WithScoringConfig(*cfg.Scoring))
	}
	if cfg.Prosody != nil {
		analyzerOpts = append(analyzerOpts, analyzer.WithThresholds(*cfg.Prosody))
	}
	a, err := analyzer.New(lex, rec, qual, feat, analyzerOpts...)
	if err != nil {
		slog.Error("failed to build analyzer", "err", err)
		return 1
	}

	srv := server.New(listenAddr(cfg), a,
		server.WithHealthCheckers(readinessCheckers(cfg, lex)...),
		server.WithLogger(logger),
	)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	certFile, keyFile := "", ""
	if cfg.Server.TLS != nil {
		certFile, keyFile = cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile
	}

	slog.Info("server ready — press Ctrl+C to shut down")
	if err := srv.Start(ctx, shutdownTimeout, certFile, keyFile); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

func listenAddr(cfg *config.Config) string {
	if cfg.Server.ListenAddr != "" {
		return cfg.Server.ListenAddr
	}
	return defaultListenAddr
}

// buildLexicon loads the dictionary named in cfg, or the embedded base
// dictionary when no path is given, and attaches the grapheme-to-phoneme
// guesser unless it is switched off.
func buildLexicon(cfg config.LexiconConfig) (*lexicon.Lexicon, error) {
	var opts []lexicon.Option
	if cfg.GuesserLanguage != "off" {
		var gopts []goruut.Option
		if cfg.GuesserLanguage != "" {
			gopts = append(gopts, goruut.WithLanguage(cfg.GuesserLanguage))
		}
		opts = append(opts, lexicon.WithGuesser(goruut.New(gopts...)))
	}

	if cfg.DictionaryPath == "" {
		return lexicon.New(opts...)
	}
	f, err := os.Open(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %q: %w", cfg.DictionaryPath, err)
	}
	defer f.Close()
	return lexicon.NewFromReader(f, opts...)
}

func buildRecognizer(entry config.ProviderEntry) (recognizer.Provider, error) {
	switch entry.Name {
	case "openai", "":
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if entry.Language != "" {
			opts = append(opts, openai.WithLanguage(entry.Language))
		}
		if entry.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(entry.Timeout))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	case "mock":
		return &recmock.Provider{}, nil
	default:
		return nil, fmt.Errorf("unknown recognizer %q", entry.Name)
	}
}

func buildQuality(entry config.ProviderEntry) (quality.Provider, error) {
	switch entry.Name {
	case "phonics", "":
		var opts []phonics.Option
		if entry.Timeout > 0 {
			opts = append(opts, phonics.WithTimeout(entry.Timeout))
		}
		return phonics.New(entry.BaseURL, entry.APIKey, opts...)
	case "mock":
		return &qualmock.Provider{ScoreResult: 85}, nil
	default:
		return nil, fmt.Errorf("unknown quality provider %q", entry.Name)
	}
}

func buildFeatures(entry config.ProviderEntry) (features.Provider, error) {
	switch entry.Name {
	case "praat", "":
		var opts []praat.Option
		if entry.Timeout > 0 {
			opts = append(opts, praat.WithTimeout(entry.Timeout))
		}
		return praat.New(entry.BaseURL, opts...)
	case "mock":
		return &featmock.Provider{}, nil
	default:
		return nil, fmt.Errorf("unknown feature extractor %q", entry.Name)
	}
}

// readinessCheckers probes the lexicon and the HTTP-reachable providers.
func readinessCheckers(cfg *config.Config, lex *lexicon.Lexicon) []health.Checker {
	checkers := []health.Checker{{
		Name: "lexicon",
		Check: func(context.Context) error {
			if lex.Len() == 0 {
				return errors.New("dictionary is empty")
			}
			return nil
		},
	}}
	if url := cfg.Providers.Quality.BaseURL; url != "" && cfg.Providers.Quality.Name == "phonics" {
		checkers = append(checkers, health.Ping("quality", url, http.DefaultClient))
	}
	if url := cfg.Providers.Features.BaseURL; url != "" && cfg.Providers.Features.Name == "praat" {
		checkers = append(checkers, health.Ping("features", url, http.DefaultClient))
	}
	return checkers
}

func newLogger(level config.LogLevel, format config.LogFormat) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == config.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
