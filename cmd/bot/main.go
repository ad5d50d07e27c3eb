package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/xaenox/cartcheck-bot/internal/analyzer"
	"github.com/xaenox/cartcheck-bot/internal/bot"
	"github.com/xaenox/cartcheck-bot/internal/storage"
	"github.com/xaenox/cartcheck-bot/internal/whatsapp"
	"github.com/xaenox/cartcheck-bot/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load local .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	if cfg.WhatsApp.Token == "" || cfg.WhatsApp.PhoneID == "" {
		logger.Fatal("WHATSAPP_TOKEN and WHATSAPP_PHONE_ID are required")
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required")
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the vision analyzer
	cartAnalyzer := analyzer.NewVisionAnalyzer(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
		logger,
	)

	// Initialize the WhatsApp client and the bot
	client := whatsapp.NewClient(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneID, logger)
	b := bot.New(store, cartAnalyzer, client, logger)

	// Mount the webhook
	router := gin.Default()
	webhook := whatsapp.NewWebhook(b, client, cfg.WhatsApp.VerifyToken, logger)
	webhook.Register(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Webhook server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
