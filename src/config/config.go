package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmngreco/ine-go/src/ine"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// INE client
	INEBaseURL        string
	INELanguage       string
	HTTPTimeout       time.Duration
	RequestsPerSecond float64 // outbound throttle; 0 disables it
	RequestBurst      int

	// Gateway response cache
	CacheExpiration      time.Duration
	CacheCleanupInterval time.Duration

	// Gateway inbound limits
	AllowedOrigins     []string
	ServerRateInterval time.Duration
	ServerRateBurst    int
}

var Cfg *AppConfig

// LoadConfig reads .env (if present) and the environment into Cfg.
// It exits the process on an invalid configuration.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}
	Cfg = cfg

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, INEBaseURL=%s, Language=%s, Timeout=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.INEBaseURL, Cfg.INELanguage, Cfg.HTTPTimeout)
}

// FromEnv builds a configuration from environment variables and defaults.
func FromEnv() *AppConfig {
	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		INEBaseURL:        getEnv("INE_BASE_URL", ine.DefaultBaseURL),
		INELanguage:       strings.ToUpper(getEnv("INE_LANGUAGE", string(ine.DefaultLanguage))),
		HTTPTimeout:       getEnvAsDuration("INE_HTTP_TIMEOUT", ine.DefaultTimeout),
		RequestsPerSecond: getEnvAsFloat("INE_REQUESTS_PER_SECOND", 4),
		RequestBurst:      getEnvAsInt("INE_REQUEST_BURST", 2),

		CacheExpiration:      getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ServerRateInterval: getEnvAsDuration("SERVER_RATE_INTERVAL", 100*time.Millisecond),
		ServerRateBurst:    getEnvAsInt("SERVER_RATE_BURST", 30),
	}
}

// Validate checks values that would otherwise fail later at request time.
func (c *AppConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	u, err := url.Parse(c.INEBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("INE_BASE_URL must be an absolute URL, got %q", c.INEBaseURL)
	}
	if _, err := ine.ParseLanguage(c.INELanguage); err != nil {
		return fmt.Errorf("INE_LANGUAGE: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("INE_HTTP_TIMEOUT must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("INE_REQUESTS_PER_SECOND cannot be negative")
	}
	if c.RequestBurst < 1 {
		return fmt.Errorf("INE_REQUEST_BURST must be at least 1")
	}
	if c.CacheExpiration <= 0 {
		return fmt.Errorf("CACHE_EXPIRATION must be positive")
	}
	if c.ServerRateInterval <= 0 || c.ServerRateBurst < 1 {
		return fmt.Errorf("SERVER_RATE_INTERVAL and SERVER_RATE_BURST must be positive")
	}
	return nil
}

// Language returns the configured default language. Validate guarantees it parses.
func (c *AppConfig) Language() ine.Language {
	lang, err := ine.ParseLanguage(c.INELanguage)
	if err != nil {
		return ine.DefaultLanguage
	}
	return lang
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
