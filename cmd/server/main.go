// Command server runs the HTTP API and the background task workers.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lumenlabs/lumen-api/internal/api"
	"github.com/lumenlabs/lumen-api/internal/config"
	"github.com/lumenlabs/lumen-api/internal/extract"
	"github.com/lumenlabs/lumen-api/internal/linkmeta"
	"github.com/lumenlabs/lumen-api/internal/platform/gemini"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/platform/ocrclient"
	"github.com/lumenlabs/lumen-api/internal/platform/openaiclient"
	"github.com/lumenlabs/lumen-api/internal/platform/postgres"
	"github.com/lumenlabs/lumen-api/internal/platform/secrets"
	"github.com/lumenlabs/lumen-api/internal/platform/videoclient"
	"github.com/lumenlabs/lumen-api/internal/service"
	"github.com/lumenlabs/lumen-api/internal/service/auth"
	"github.com/lumenlabs/lumen-api/internal/task"
	"github.com/lumenlabs/lumen-api/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := runMigrations(db, log); err != nil {
		return err
	}

	app, err := buildApp(ctx, cfg, log, db)
	if err != nil {
		return err
	}

	return serve(cfg, log, app)
}

// app holds the wired components the HTTP server needs.
type app struct {
	handler http.Handler
	runner  *task.Runner
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB, log *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations applied")
	return nil
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*app, error) {
	taskStore := postgres.NewPostgresTaskStore(db)
	tokenStore := postgres.NewPostgresTokenStore(db)

	encryptor, err := secrets.NewEncryptor([]byte(cfg.Auth.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}
	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime())
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt service: %w", err)
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.ModelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	ocrTimeout := time.Duration(cfg.OCR.TimeoutSeconds) * time.Second
	videoTimeout := time.Duration(cfg.Video.TimeoutSeconds) * time.Second

	ocr := ocrclient.NewClient(cfg.OCR.BaseURL, ocrTimeout)
	pipeline := extract.NewPipeline(ocr)
	web := linkmeta.NewWebClient(30 * time.Second)
	video := videoclient.NewClient(cfg.Video.ProcessorURL, videoTimeout)
	transcriber := videoclient.NewTranscriptionClient(cfg.Video.WhisperURL, videoTimeout)

	modelName := cfg.LLM.ModelName
	summarizers := func(ctx context.Context, provider, apiKey string) (service.Summarizer, error) {
		switch provider {
		case "openai":
			return openaiclient.NewClient(apiKey, 60*time.Second), nil
		case "gemini":
			return gemini.NewClient(ctx, apiKey, modelName)
		default:
			return nil, fmt.Errorf("unknown summarizer provider %q", provider)
		}
	}

	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Worker.Count,
		QueueSize:   cfg.Worker.QueueSize,
	}, log)

	tokenService := service.NewTokenService(tokenStore, encryptor)
	taskService := service.NewTaskService(
		taskStore, runner, pipeline, geminiClient,
		web, video, transcriber, tokenService, summarizers,
	)

	handler := api.NewRouter(
		log, jwtService,
		api.NewTaskHandler(taskService),
		api.NewTokenHandler(tokenService),
		api.NewHealthHandler(video, transcriber),
	)

	return &app{handler: handler, runner: runner}, nil
}

func serve(cfg *config.Config, log *slog.Logger, a *app) error {
	a.runner.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.runner.Stop()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http shutdown failed", "error", err)
	}

	// Let in-flight tasks finish so none are stranded in PROCESSING.
	a.runner.Stop()
	log.Info("shutdown complete")
	return nil
}
