// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken  string
	MinifluxBaseURL   string
	MinifluxAPIKey    string
	MinifluxUsername  string
	MinifluxPassword  string
	BridgeURLTemplate string
	AdminUsername     string
	AllowNoUsername   bool
	DatabasePath      string
	LogLevel          string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	minifluxURL := os.Getenv("MINIFLUX_BASE_URL")
	if minifluxURL == "" {
		return nil, fmt.Errorf("MINIFLUX_BASE_URL is required")
	}

	apiKey := os.Getenv("MINIFLUX_API_KEY")
	username := os.Getenv("MINIFLUX_USERNAME")
	password := os.Getenv("MINIFLUX_PASSWORD")
	if apiKey == "" && (username == "" || password == "") {
		return nil, fmt.Errorf("miniflux credentials are required: set MINIFLUX_API_KEY or MINIFLUX_USERNAME and MINIFLUX_PASSWORD")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/channels.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		TelegramBotToken:  token,
		MinifluxBaseURL:   strings.TrimSuffix(minifluxURL, "/"),
		MinifluxAPIKey:    apiKey,
		MinifluxUsername:  username,
		MinifluxPassword:  password,
		BridgeURLTemplate: os.Getenv("RSS_BRIDGE_URL"),
		AdminUsername:     os.Getenv("ADMIN"),
		AllowNoUsername:   strings.EqualFold(os.Getenv("ACCEPT_CHANNELS_WITHOUT_USERNAME"), "true"),
		DatabasePath:      dbPath,
		LogLevel:          logLevel,
	}, nil
}

// IsAdmin checks whether a Telegram username matches the configured
// admin. An empty admin setting authorizes nobody.
func (c *Config) IsAdmin(username string) bool {
	return c.AdminUsername != "" && username == c.AdminUsername
}
