package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promoHunter/app/bot-server/router"
	"promoHunter/business/conversions"
	"promoHunter/business/curation"
	"promoHunter/business/evsignal"
	"promoHunter/internal/middleware"
	"promoHunter/internal/repository/copywriter"
	psqlRepo "promoHunter/internal/repository/postgres"
	redisRepo "promoHunter/internal/repository/redis"
	"promoHunter/internal/repository/shopee"
	"promoHunter/internal/repository/telegram"
	"promoHunter/internal/rest"
	"promoHunter/pkg/config"
	"promoHunter/pkg/database"
	redisdb "promoHunter/pkg/database/redis"
	"promoHunter/pkg/logger"
	"promoHunter/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting PromoHunter", "version", cfg.App.Version, "mode", cfg.App.RunMode)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Init repo
	offerRepo := psqlRepo.NewOfferRepository(db)
	conversionRepo := psqlRepo.NewConversionRepository(db)
	postRepo := psqlRepo.NewPostRepository(db)

	// Cooldown checks go through Redis when available, Postgres otherwise.
	var tracker curation.CooldownTracker = postRepo
	if cfg.Redis.Enabled {
		redisClient, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Error("Redis unavailable, cooldown checks fall back to Postgres", "error", err)
		} else {
			tracker = redisRepo.NewCooldownCache(redisClient, postRepo)
			logger.Info("Redis cooldown cache enabled")
		}
	}

	// Init collaborators
	shopeeRepo := shopee.NewShopeeRepository(shopee.ShopeeConfig{
		PartnerID:  cfg.Shopee.PartnerID,
		APIKey:     cfg.Shopee.APIKey,
		GraphQLURL: cfg.Shopee.GraphQLURL,
	})

	telegramRepo := telegram.NewTelegramRepository(telegram.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		DryRun:   cfg.Telegram.DryRun,
	})

	var copySvc curation.CopyService
	if cfg.Copywriter.Enabled {
		copySvc = copywriter.NewCopywriterRepository(copywriter.CopywriterConfig{
			BaseURL:           cfg.Copywriter.BaseURL,
			APIKey:            cfg.Copywriter.APIKey,
			Model:             cfg.Copywriter.Model,
			BasicAuthUsername: cfg.Copywriter.BasicAuthUsername,
			BasicAuthPassword: cfg.Copywriter.BasicAuthPassword,
		})
	}

	// Init service
	evService := evsignal.NewService(conversionRepo)
	syncService := conversions.NewService(shopeeRepo, conversionRepo)
	curationService := curation.NewService(
		shopeeRepo,
		copySvc,
		evService,
		telegramRepo,
		tracker,
		offerRepo,
		curationConfig(cfg.Curation),
	)

	if cfg.App.RunMode == "once" {
		runOnce(curationService, syncService)
		return
	}

	// Init handler
	curationHandler := rest.NewCurationHandler(curationService, syncService, postRepo, offerRepo)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	api := e.Group("/api/v1")
	router.SetupCurationRoutes(api, curationHandler, authRequired, adminOnly)
	router.SetupMetricsRoute(e)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// runOnce syncs the conversion report and executes a single curation cycle.
// Cron-friendly: exit status reflects the run outcome.
func runOnce(curationService *curation.Service, syncService *conversions.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := syncService.Sync(ctx, 0, 0); err != nil {
		logger.Error("Conversion sync failed, continuing with stale history", "error", err)
	}

	result, err := curationService.Run(ctx)
	if err != nil {
		logger.Fatal("Curation run failed", "error", err)
	}

	logger.Info("Curation run finished",
		"run_id", result.RunID,
		"published", result.Published,
		"target", result.Target,
	)
}

func curationConfig(c config.CurationConfig) curation.Config {
	out := curation.DefaultConfig()
	out.TargetPosts = c.TargetPosts
	out.PagesPerQuery = c.PagesPerQuery
	out.ItemsPerPage = c.ItemsPerPage
	out.Keywords = c.Keywords
	out.ShopIDs = c.ShopIDs
	out.MinRating = c.MinRating
	out.MinDiscount = c.MinDiscount
	out.MinRelevance = c.MinRelevance
	out.MaxCategoryShare = c.MaxCategoryShare
	out.CooldownDays = c.CooldownDays
	out.RescueCooldownFactor = c.RescueCooldownFactor
	out.MaxRescueReposts = c.MaxRescueReposts
	out.EVWindowDays = c.EVWindowDays
	out.RelevanceTopK = c.RelevanceTopK
	out.Variant = c.Variant
	out.CTA = c.CTA
	out.PublishPause = time.Duration(c.PublishPauseMillis) * time.Millisecond
	return out
}
