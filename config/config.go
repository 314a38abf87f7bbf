package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

// Config collects every tunable of the service. Values come from the
// environment (a .env file is honored); Shopify credentials are the
// only hard requirement.
type Config struct {
	Addr string

	GeminiModel string

	SpeechLanguage string
	SessionSecret  string

	ShopifyShopURL     string
	ShopifyAccessToken string
	ShopifyAPIVersion  string

	ToolDepthLimit  int
	HistoryLimit    int
	UpstreamTimeout time.Duration
}

// Load reads configuration from the environment. Missing Shopify
// credentials are a startup failure, not a per-request one.
func Load() (*Config, error) {
	gotenv.Load()

	cfg := &Config{
		Addr:               envOr("ADDR", ":8080"),
		GeminiModel:        envOr("GEMINI_MODEL", "gemini-2.0-flash-001"),
		SpeechLanguage:     envOr("SPEECH_LANGUAGE", "en-US"),
		SessionSecret:      envOr("SESSION_SECRET", "dev-session-secret"),
		ShopifyShopURL:     os.Getenv("SHOPIFY_SHOP_URL"),
		ShopifyAccessToken: os.Getenv("SHOPIFY_API_ACCESS_TOKEN"),
		ShopifyAPIVersion:  envOr("SHOPIFY_API_VERSION", "2023-10"),
		ToolDepthLimit:     envIntOr("TOOL_DEPTH_LIMIT", 5),
		HistoryLimit:       envIntOr("HISTORY_LIMIT", 40),
		UpstreamTimeout:    envDurationOr("UPSTREAM_TIMEOUT", 30*time.Second),
	}

	if cfg.ShopifyShopURL == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_URL is not set")
	}
	if cfg.ShopifyAccessToken == "" {
		return nil, fmt.Errorf("SHOPIFY_API_ACCESS_TOKEN is not set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
