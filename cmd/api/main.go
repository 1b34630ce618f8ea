package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ametlin/budgetlens/internal/api"
	"github.com/ametlin/budgetlens/internal/classify"
	"github.com/ametlin/budgetlens/internal/config"
	"github.com/ametlin/budgetlens/internal/jobs/inmemory"
	"github.com/ametlin/budgetlens/internal/logger"
	"github.com/ametlin/budgetlens/internal/statement"
	"github.com/ametlin/budgetlens/internal/store"
)

func main() {
	var (
		envFile = flag.String("env", "", "Path to a .env file (defaults to ./.env if present)")
		workers = flag.Int("workers", 2, "Number of background parse workers")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	classifier := classify.New()
	if cfg.CategoriesPath != "" {
		classifier, err = classify.NewFromFile(cfg.CategoriesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CategoriesPath).Msg("Failed to load category rules")
		}
		log.Info().Str("path", cfg.CategoriesPath).Msg("Loaded user category rules")
	}

	parser := statement.NewParser(classifier, logger.WithComponent(log, "statement"))

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer st.Close()
	log.Info().Str("path", cfg.DBPath).Msg("Database ready")

	// Job infrastructure for async statement parsing.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, statement.ParseJobHandler(parser)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start parse workers")
	}
	log.Info().Int("workers", *workers).Msg("Parse workers started")

	server := api.New(parser, st, jobQueue, jobStore, logger.WithComponent(log, "api"), cfg.MaxUploadBytes)
	app := server.App()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("addr", addr).Msg("Starting API server")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Wait for in-flight parse jobs before exiting.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
