// Package app initializes and orchestrates the main components of the Merge Warden
// application. It wires together the configuration, server, and other services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/merge-warden/internal/config"
	"github.com/sevigo/merge-warden/internal/core"
	"github.com/sevigo/merge-warden/internal/db"
	"github.com/sevigo/merge-warden/internal/github"
	"github.com/sevigo/merge-warden/internal/jobs"
	"github.com/sevigo/merge-warden/internal/llm"
	"github.com/sevigo/merge-warden/internal/metrics"
	"github.com/sevigo/merge-warden/internal/server"
	"github.com/sevigo/merge-warden/internal/storage"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.JobDispatcher
	dbConn     *db.DB
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for Ollama requests.
// Ollama can take a while to process requests, so we need more generous timeouts.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing Merge Warden application",
		"llm_provider", cfg.LLMProvider,
		"generator_model", cfg.GeneratorModelName,
		"max_workers", cfg.MaxWorkers)

	logger.Info("connecting to generator LLM", "model", cfg.GeneratorModelName)
	generatorLLM, err := createLLM(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to generator LLM", "error", err)
		return nil, fmt.Errorf("failed to create generator LLM: %w", err)
	}

	dbConn, cleanup, err := db.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	reviewDB := storage.NewStore(dbConn.DB)

	tokens, err := github.NewTokenSource(cfg.GitHubAppID, cfg.GitHubPrivateKeyPath, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create GitHub token source: %w", err)
	}
	clientFactory := github.NewClientFactory(tokens, logger)

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		cleanup()
		logger.Error("failed to initialize prompt manager", "error", err)
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	completer := llm.NewCompleter(generatorLLM)
	orchestrator := llm.NewOrchestrator(completer, promptMgr, llm.ModelProvider(cfg.LLMProvider), logger)

	registry := metrics.NewRegistry()

	reviewJob := jobs.NewReviewJob(clientFactory, reviewDB, orchestrator, registry, logger)
	gradeJob := jobs.NewGradeJob(clientFactory, reviewDB, orchestrator, registry, logger)

	dispatcher := jobs.NewDispatcher(map[core.EventKind]core.Job{
		core.EventPullRequest: reviewJob,
		core.EventComment:     gradeJob,
	}, cfg.MaxWorkers, logger)

	httpServer := server.NewServer(ctx, cfg, dispatcher, registry, logger)

	logger.Info("Merge Warden application initialized successfully")
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     httpServer,
		logger:     logger,
		dispatcher: dispatcher,
		dbConn:     dbConn,
	}, nil
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting Merge Warden",
		"server_port", a.cfg.ServerPort,
		"max_workers", a.cfg.MaxWorkers)

	err := a.server.Start()
	if err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}

	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down Merge Warden services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight jobs to finish.
	a.dispatcher.Stop()

	a.logger.Info("closing database connection")
	if err := a.dbConn.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}

	if serverErr != nil {
		a.logger.Error("Merge Warden stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("Merge Warden stopped successfully")
	return nil
}

// createLLM creates the appropriate LLM client based on the configured provider.
func createLLM(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "gemini":
		logger.Info("Using Gemini LLM provider", "model", cfg.GeneratorModelName)
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set in environment for gemini provider")
		}
		return gemini.New(ctx,
			gemini.WithModel(cfg.GeneratorModelName),
			gemini.WithAPIKey(cfg.GeminiAPIKey),
		)

	case "ollama":
		logger.Info("Using Ollama LLM provider", "model", cfg.GeneratorModelName)
		return ollama.New(
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithModel(cfg.GeneratorModelName),
			ollama.WithLogger(logger),
		)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
