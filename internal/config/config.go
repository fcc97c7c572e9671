package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Store  StoreConfig
	AI     AIConfig
	Relay  RelayConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	// JWTSecret verifies handshake tokens issued by the external auth
	// service. Empty means every connection gets a guest identity.
	JWTSecret []byte
}

type StoreConfig struct {
	// DatabaseURL selects the Postgres-backed notification store when set;
	// otherwise read-state lives in memory for the process lifetime.
	DatabaseURL string
}

type AIConfig struct {
	// ServiceURL is the external responder endpoint for @AI mentions.
	// Empty disables forwarding.
	ServiceURL string
	Timeout    time.Duration
}

type RelayConfig struct {
	// SendBuffer is the per-connection outbound queue size; a connection
	// that overflows it is dropped.
	SendBuffer int
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout:    getDurationOrDefault("WRITE_TIMEOUT", "15s"),
			ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", "10s"),
		},
		Auth: AuthConfig{
			JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		},
		Store: StoreConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		AI: AIConfig{
			ServiceURL: os.Getenv("AI_SERVICE_URL"),
			Timeout:    getDurationOrDefault("AI_TIMEOUT", "30s"),
		},
		Relay: RelayConfig{
			SendBuffer: getIntOrDefault("SEND_BUFFER", 256),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}
