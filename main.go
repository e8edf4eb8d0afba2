package main

import (
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/mmngreco/ine-go/src/config"
	"github.com/mmngreco/ine-go/src/handlers"
	"github.com/mmngreco/ine-go/src/ine"
	"github.com/mmngreco/ine-go/src/logger"
	"github.com/mmngreco/ine-go/src/services"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, os.Stdout)
	logger.L.Info("INE gateway starting...", "defaultLanguage", config.Cfg.Language())

	logger.L.Info("Initializing INE clients...", "baseURL", config.Cfg.INEBaseURL)
	clients, err := services.NewClients(
		ine.WithBaseURL(config.Cfg.INEBaseURL),
		ine.WithTimeout(config.Cfg.HTTPTimeout),
		ine.WithRateLimit(rate.Limit(config.Cfg.RequestsPerSecond), config.Cfg.RequestBurst),
		ine.WithLogger(logger.L),
	)
	if err != nil {
		logger.L.Error("Failed to create INE clients", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing response cache...", "expiration", config.Cfg.CacheExpiration)
	resultCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanupInterval)

	seriesService := services.NewSeriesService(clients, resultCache)
	seriesHandler := handlers.NewSeriesHandler(seriesService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	handlers.RegisterRoutes(rootMux, seriesHandler)

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(config.Cfg.ServerRateInterval), config.Cfg.ServerRateBurst)
	finalHandler := handlers.RequestIDMiddleware(
		handlers.LoggingMiddleware(
			handlers.CORSMiddleware(config.Cfg.AllowedOrigins)(
				handlers.RateLimitMiddleware(limiter)(rootMux))))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.Cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
