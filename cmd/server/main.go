package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/career-agent/backend/internal/api"
	"github.com/career-agent/backend/internal/auth"
	"github.com/career-agent/backend/internal/config"
	"github.com/career-agent/backend/internal/core"
	"github.com/career-agent/backend/internal/store"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.LogLevel == "DEBUG" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("path", cfg.DatabaseURL), zap.Error(err))
	}
	defer dbStore.Close()

	gemini, err := core.NewGeminiService(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal("failed to initialize Gemini client", zap.Error(err))
	}
	defer gemini.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	conversationService := core.NewConversationService(dbStore, gemini, logger)
	agentService := core.NewAgentService(gemini)

	handler := api.NewHandler(dbStore, conversationService, agentService, tokens, logger)
	router := api.NewRouter(handler, cfg.AllowedOrigin)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting gracefully")
}
