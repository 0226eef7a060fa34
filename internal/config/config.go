package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	WSURL          string
	Token          string
	HTTPTimeout    time.Duration
	SubmitCooldown time.Duration
}

// Load reads configuration from the environment, with a .env file as a
// development convenience. A missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		APIBaseURL:     getEnv("POS_API_URL", "http://localhost:8081"),
		WSURL:          getEnv("POS_WS_URL", "ws://localhost:8081/ws"),
		Token:          getEnv("POS_TOKEN", ""),
		HTTPTimeout:    getDuration("POS_HTTP_TIMEOUT", 10*time.Second),
		SubmitCooldown: getDuration("POS_SUBMIT_COOLDOWN", 3*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
