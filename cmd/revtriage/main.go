package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/revtriage/revtriage/internal/adapter/driven/github"
	sqliteadapter "github.com/revtriage/revtriage/internal/adapter/driven/sqlite"
	"github.com/revtriage/revtriage/internal/adapter/driving/httpapi"
	"github.com/revtriage/revtriage/internal/application"
	"github.com/revtriage/revtriage/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"bot_usernames", cfg.BotUsernames,
		"github_token_set", cfg.HasGitHubToken(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	runStore := sqliteadapter.NewRunRepo(db)
	botStore := sqliteadapter.NewBotConfigRepo(db)

	if !cfg.HasGitHubToken() {
		slog.Warn("no github token configured, triage requests will fail until REVTRIAGE_GITHUB_TOKEN is set")
	}
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	// 6. Wire the classification engine and triage service.
	parser := application.NewCommentParser(application.DefaultParserConfig())
	detector := application.NewResolutionDetector(application.DefaultDetectorConfig())
	classifier := application.NewClassificationService(parser, detector)
	triageSvc := application.NewTriageService(ghClient, runStore, botStore, classifier, cfg.BotUsernames)

	// 7. Create HTTP handler and register API routes.
	apiHandler := httpapi.NewHandler(triageSvc, runStore, botStore, cfg.RunListLimit, slog.Default())
	handler := httpapi.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("revtriage started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
