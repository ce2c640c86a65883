// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/analysis"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/bot"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/config"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/gpt"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/server"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/store"
	"github.com/MinHeokChoi/meal-agent-mvp/pkg/logger"
)

func main() {
	// Initialize logger
	l := logger.New()
	l.Info("Starting Meal Agent bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	// Validate critical configuration
	if cfg.Telegram.Token == "" {
		l.Fatal("Telegram token is not configured")
	}
	if cfg.GPT.APIKey == "" {
		l.Fatal("GPT API key is not configured")
	}

	// Initialize the file store
	st, err := store.New(cfg.Storage.Dir)
	if err != nil {
		l.Fatal("Failed to initialize data directory", err)
	}

	// Initialize GPT client and the analyzer on top of it
	gptClient := gpt.NewClient(cfg.GPT.APIKey).WithModel(cfg.GPT.Model)
	analyzer := analysis.New(gptClient, l)

	// Create and start bot
	telegramBot, err := bot.NewTelegramBot(cfg.Telegram.Token, st, analyzer, l)
	if err != nil {
		l.Fatal("Failed to create Telegram bot", err)
	}

	l.Info("Starting Telegram bot...")
	if err := telegramBot.Start(context.Background()); err != nil {
		l.Fatal("Failed to start Telegram bot", err)
	}
	l.Info("Telegram bot started successfully")

	// Start health check server
	httpServer := server.NewServer(cfg.Server.Port, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Stop HTTP server first
	if err := httpServer.Stop(ctx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	// Then stop bot
	if err := telegramBot.Stop(ctx); err != nil {
		l.Error("Error during bot shutdown", err)
	}

	l.Info("Bot stopped successfully")
}
