package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"parkent-market/internal/config"
	"parkent-market/internal/db"
	"parkent-market/internal/repository"
	"parkent-market/internal/service"
)

// Entrada standalone para el cron diario de limpieza de anuncios vencidos.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	listingRepo := repository.NewPgListingRepository(pool)
	sweeper := service.NewSweeperService(logger, listingRepo)

	cleaned, err := sweeper.Sweep(ctx)
	if err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}
	logger.Info("sweep completed", zap.Int64("cleaned", cleaned))
}
