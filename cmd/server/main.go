package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/transport"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info("🚀 Starting portfolio backend...")
	log.Info("✓ Environment variables loaded")

	credentials := services.Credentials{
		GeminiAPIKey:       cfg.GeminiAPIKey,
		FootballDataAPIKey: cfg.FootballDataAPIKey,
	}
	if cfg.GeminiAPIKey == "" || cfg.FootballDataAPIKey == "" {
		log.Warn("✗ GOOGLE_API_KEY or FOOTBALL_DATA_API_KEY is not set; chat requests will fail with a configuration error")
	}

	// ──── Step 2: Initialize Gemini Fallback Chain ────
	var primary services.Surface = services.NewRESTSurface(cfg.GeminiPrimaryURL, cfg.GeminiAPIKey, cfg.GeminiTimeout)
	if cfg.GeminiTransport == "sdk" && cfg.GeminiAPIKey != "" {
		sdkSurface, err := services.NewSDKSurface(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		primary = sdkSurface
	}
	secondary := services.NewRESTSurface(cfg.GeminiSecondaryURL, cfg.GeminiAPIKey, cfg.GeminiTimeout)

	geminiService := services.NewGeminiService(cfg.GeminiModels, primary, secondary)
	defer geminiService.Close()
	log.WithFields(log.Fields{
		"models":    geminiService.Models(),
		"primary":   primary.Name(),
		"secondary": secondary.Name(),
	}).Info("✓ Gemini fallback chain initialized")

	// ──── Step 3: Initialize Redis Payload Cache (optional) ────
	var cache services.PayloadCache
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		cache = services.NewRedisPayloadCache(redisClient, cfg.FootballDataCacheTTL)
		log.WithField("ttl", cfg.FootballDataCacheTTL.String()).Info("✓ Redis football-data cache enabled")
	}

	// ──── Initialize Services ────
	footballService := services.NewFootballDataService(cfg.FootballDataBaseURL, cfg.FootballDataAPIKey, cfg.FootballDataTimeout, cache)
	orchestrator := services.NewChatOrchestrator(geminiService, footballService, credentials, cfg.ChatHistoryWindow)

	// ──── Step 4: Start NATS Transport (optional) ────
	var natsTransport *transport.NATSTransport
	if cfg.NatsURL != "" {
		var err error
		natsTransport, err = transport.NewNATSTransport(cfg.NatsURL, "portfolio-backend", cfg.NatsChatSubject, cfg.NatsQueueGroup, cfg.NatsRequestTimeout, orchestrator)
		if err != nil {
			log.Fatalf("✗ NATS connection failed: %v", err)
		}
		if err := natsTransport.Start(); err != nil {
			log.Fatalf("✗ NATS subscription failed: %v", err)
		}
		log.Info("✓ NATS transport started")
	}

	// ──── Step 5: Start HTTP Server ────
	chatHandler := handlers.NewChatHandler(orchestrator, cfg.ChatTimeout)
	r := router.New(chatHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		if natsTransport != nil {
			natsTransport.Close()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Infof("✓ Portfolio backend ready on http://localhost:%s", cfg.Port)
	log.Infof("  Chat: POST http://localhost:%s/api/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
