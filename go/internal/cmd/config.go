package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
)

type Config struct {
	Port           string
	LogLevel       zerolog.Level
	TuningFile     string
	AllowedOrigins []string
	Tuning         tuning.Config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       level,
		TuningFile:     os.Getenv("TUNING_FILE"),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
	}

	cfg.Tuning, err = tuning.Load(cfg.TuningFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
