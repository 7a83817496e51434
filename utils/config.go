package utils

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the bot reads from the environment.
type Config struct {
	// Discord
	BotToken      string
	CroupierRole  string // role allowed to deal games
	MemberRole    string // role pinged when a lobby opens (optional)
	GameChannelID string // channel the game commands are restricted to (optional)

	// Database
	DatabaseURL string

	// Keep-alive HTTP server
	Port string
}

// LoadConfig reads configuration from .env (if present) and the environment.
func LoadConfig() (*Config, error) {
	// Non-fatal if missing; hosting platforms inject real env vars
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		CroupierRole:  os.Getenv("CROUPIER_ROLE_ID"),
		MemberRole:    os.Getenv("MEMBER_ROLE_ID"),
		GameChannelID: os.Getenv("GAME_CHANNEL_ID"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getEnvDefault("PORT", "8080"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.CroupierRole == "" {
		return nil, fmt.Errorf("CROUPIER_ROLE_ID is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
