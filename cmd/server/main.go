package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clipmark/clipmark-server/internal/api"
	"github.com/clipmark/clipmark-server/internal/config"
	"github.com/clipmark/clipmark-server/internal/credpool"
	"github.com/clipmark/clipmark-server/internal/db"
	"github.com/clipmark/clipmark-server/internal/logging"
	"github.com/clipmark/clipmark-server/internal/metadata"
	"github.com/clipmark/clipmark-server/internal/project"
	"github.com/clipmark/clipmark-server/internal/refresh"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// A missing .env is fine; the environment alone may carry everything.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipmark server",
		"version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}
	logger.Info("auth token ready", "token", logging.SanitizeToken(authToken))

	youtubePool := credpool.New(cfg.YouTubeAPIKeys())
	twitchPool := credpool.New(cfg.TwitchTokens())
	logger.Info("credential pools initialized",
		"youtube_keys", youtubePool.Size(), "twitch_tokens", twitchPool.Size())

	chzzkBase := cfg.ChzzkBaseURL()
	if chzzkBase == "" {
		chzzkBase = metadata.DefaultChzzkBaseURL
	}
	twitchBase := cfg.TwitchBaseURL()
	if twitchBase == "" {
		twitchBase = metadata.DefaultTwitchBaseURL
	}

	resolver := metadata.NewResolver(
		metadata.NewYouTube(youtubePool, logger),
		metadata.NewChzzk(chzzkBase, logger),
		metadata.NewTwitch(twitchBase, cfg.TwitchClientID(), twitchPool, logger),
		logger,
	)

	projectSvc := project.NewService(repo, resolver, logger)
	refresher := refresh.NewRefresher(repo, resolver, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		ProjectService: projectSvc,
		Refresher:      refresher,
		Repository:     repo,
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
