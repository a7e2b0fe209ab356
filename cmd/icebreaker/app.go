package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/manthysbr/icebreaker/internal/adapters/duckdb"
	"github.com/manthysbr/icebreaker/internal/adapters/providers"
	appconfig "github.com/manthysbr/icebreaker/internal/config"
	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/manthysbr/icebreaker/internal/core/services"
	"github.com/manthysbr/icebreaker/pkg/kernel"
)

// buildProviders is replaced in tests.
var buildProviders = providers.Build

// App bundles long-lived services created at startup.
type App struct {
	Config   *domain.AppConfig
	Logger   *slog.Logger
	Tracer   *services.TraceCollector
	Events   *services.EventBus
	Repo     *duckdb.Repository // nil when storage is disabled
	Pipeline *services.Pipeline
}

func loadConfig(flags *rootFlags) (*domain.AppConfig, error) {
	path := flags.configFile
	if path == "" {
		path = os.Getenv(appconfig.EnvConfigFile)
	}
	cfg, err := appconfig.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: appconfig.LogLevel(level)}))
}

// newApp loads configuration and wires the pipeline. Logs go to logOut so
// command output on stdout stays machine-readable.
func newApp(flags *rootFlags, logOut io.Writer) (*App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, cfg.Log.Level)

	app := &App{Config: cfg, Logger: logger}

	var traceRepo services.TraceRepository
	if cfg.Storage.DuckDBPath != "" {
		repo, err := duckdb.NewRepository(cfg.Storage.DuckDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to init repository: %w", err)
		}
		app.Repo = repo
		traceRepo = repo
	}
	app.Tracer = services.NewTraceCollector(logger, traceRepo)

	p, err := buildProviders(logger, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build providers: %w", err)
	}

	tools, err := domain.NewToolRegistry(services.NewWebSearchTool(p.Searcher, services.WebSearchOptions{
		MaxResults:  cfg.Search.MaxResults,
		Timeout:     cfg.Search.Timeout,
		QuerySuffix: cfg.Search.QuerySuffix,
	}))
	if err != nil {
		app.Close()
		return nil, err
	}

	resolver := services.NewProfileResolver(logger, p.LLM, tools, app.Tracer, p.LLM.Model(), cfg.Resolver.MaxSteps)
	extractor := services.NewExtractor(logger, p.LLM, app.Tracer, p.LLM.Model())
	app.Events = services.NewEventBus(logger)
	app.Pipeline = services.NewPipeline(logger, resolver, p.Profiles, extractor, app.Tracer).WithEvents(app.Events)

	logger.Debug("app initialized",
		"llm_mode", cfg.LLM.Mode,
		"model", p.LLM.Model(),
		"llm_api_key", appconfig.MaskSecret(cfg.LLM.APIKey),
		"search_provider", cfg.Search.Provider,
		"profile_mock", cfg.Profile.Mock,
		"duckdb_path", cfg.Storage.DuckDBPath,
	)
	return app, nil
}

// Close waits for pending trace writes and releases the repository.
func (a *App) Close() {
	a.Tracer.Flush()
	if a.Repo != nil {
		if err := a.Repo.Close(); err != nil {
			a.Logger.Warn("failed to close repository", "error", err)
		}
	}
}

// traceStore returns the repository, or an untyped nil when storage is disabled.
func (a *App) traceStore() kernel.TraceStore {
	if a.Repo == nil {
		return nil
	}
	return a.Repo
}
