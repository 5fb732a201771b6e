package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/scrimbook/scrimbook/internal/store"
	"github.com/scrimbook/scrimbook/internal/web"
	"github.com/scrimbook/scrimbook/internal/workflow"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DATABASE_PATH", "./data/scrimbook.db")
	devMode := getEnv("DEV_MODE", "") == "true"

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.WithError(err).Fatal("failed to create data directory")
	}

	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// Sessions outlive the requests that create them; they are parented to
	// the process context and torn down on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := store.NewAdapter(db)
	sessions := workflow.NewManager(ctx, adapter.Services(), log)

	server := web.NewServer(sessions, db, log, web.Config{DevMode: devMode})

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server,
	}

	// Handle shutdown signals
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		log.Info("shutting down")
		sessions.Shutdown()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP server shutdown error")
		}
	}()

	log.WithField("port", port).Info("server running")
	if devMode {
		log.Info("dev mode enabled")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("HTTP server error")
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
