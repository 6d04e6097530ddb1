package server

import (
	"os"
	"strconv"
)

// Config holds the server's runtime settings, read from the environment.
type Config struct {
	Port          string
	DatabasePath  string
	MaxRooms      int
	CountdownSecs int
}

// LoadConfig reads settings from the environment with defaults.
func LoadConfig() Config {
	return Config{
		Port:          getEnv("PORT", "8000"),
		DatabasePath:  getEnv("DATABASE_PATH", "rapidkeys-server.db"),
		MaxRooms:      getEnvInt("MAX_ROOMS", 100),
		CountdownSecs: getEnvInt("COUNTDOWN_SECS", 3),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
