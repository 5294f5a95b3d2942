package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkent-market/internal/config"
	"parkent-market/internal/db"
	apihttp "parkent-market/internal/http"
	"parkent-market/internal/repository"
	"parkent-market/internal/service"
	"parkent-market/internal/telegram"
)

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

	codeRepo := repository.NewPgAuthCodeRepository(pool)
	accountRepo := repository.NewPgAccountRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	roleRepo := repository.NewPgRoleRepository(pool)
	listingRepo := repository.NewPgListingRepository(pool)
	partnerRepo := repository.NewPgPartnerRepository(pool)
	bannerRepo := repository.NewPgBannerRepository(pool)
	categoryRepo := repository.NewPgCategoryRepository(pool)

	var (
		issueLimiter  service.IssueRateLimiter
		tokenStore    service.RefreshTokenStore
		artifactStore service.ArtifactStore
		redisClient   *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			issueLimiter = service.NewRedisIssueRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			artifactStore = service.NewRedisArtifactStore(redisClient)
		}
		cancel()
	}
	if issueLimiter == nil {
		issueLimiter = service.NewIssueRateLimiter(10*time.Minute, 3)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	linkSvc := service.NewLoginLinkService(artifactStore, jwtSvc)
	provisionSvc := service.NewProvisionService(logger, accountRepo, profileRepo, linkSvc)
	redeemSvc := service.NewRedeemService(logger, codeRepo, provisionSvc)
	sweeperSvc := service.NewSweeperService(logger, listingRepo)
	adminSvc := service.NewAdminService(logger, listingRepo, profileRepo, roleRepo, partnerRepo, bannerRepo, categoryRepo)

	var (
		issuerSvc *service.IssuerService
		bot       *telegram.Bot
	)
	if cfg.TelegramBotToken != "" {
		bot = telegram.NewBot(logger, cfg.TelegramBotToken, cfg.TelegramPollTimeout, func(ctx context.Context, trigger telegram.Trigger) {
			if _, err := issuerSvc.Issue(ctx, trigger); err != nil {
				logger.Warn("issue failed", zap.Error(err), zap.Int64("telegram_id", trigger.TelegramID))
			}
		})
		issuerSvc = service.NewIssuerService(logger, codeRepo, bot, issueLimiter)
	} else {
		issuerSvc = service.NewIssuerService(logger, codeRepo, telegram.NewDisabledSender("telegram bot not configured"), issueLimiter)
	}

	authHandler := apihttp.NewAuthHandler(logger, redeemSvc, jwtSvc)
	adminHandler := apihttp.NewAdminHandler(logger, adminSvc)
	maintenanceHandler := apihttp.NewMaintenanceHandler(logger, sweeperSvc)
	router := apihttp.NewRouter(logger, cfg.CORSOrigins, authHandler, adminHandler, maintenanceHandler, jwtSvc, roleRepo)

	if bot != nil {
		go func() {
			// Arranque diferido para no competir con instancias en apagado.
			time.Sleep(time.Duration(cfg.TelegramStartDelay) * time.Second)
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	if cfg.SweepIntervalMinutes > 0 {
		go sweeperSvc.RunPeriodic(ctx, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
