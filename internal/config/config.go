// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration.
type Config struct {
	DiscordBotToken string
	ReportAPIURL    string
	HomeGuildID     string
	DatabasePath    string
	ListenAddr      string
	LogLevel        string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	apiURL := os.Getenv("REPORT_API_URL")
	if apiURL == "" {
		return nil, fmt.Errorf("REPORT_API_URL is required")
	}

	homeGuild := os.Getenv("HOME_GUILD_ID")
	if homeGuild == "" {
		return nil, fmt.Errorf("HOME_GUILD_ID is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DiscordBotToken: token,
		ReportAPIURL:    apiURL,
		HomeGuildID:     homeGuild,
		DatabasePath:    dbPath,
		ListenAddr:      addr,
		LogLevel:        logLevel,
	}, nil
}
