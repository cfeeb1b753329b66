package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env when APP_ENV is "local".
// Outside local development the process environment is used as-is.
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: .env file not found, or error loading: %v. Relying on system environment variables.", err)
		}
	}
}

// Getenv returns the value of key, or fallback when unset.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
