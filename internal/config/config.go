package config

import (
	"os"
	"strconv"

	"opschecklist/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Redis for request rate limiting; empty disables it (fail-open)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// External notification providers (email always, text/voice optional)
	EmailProviderURL string
	EmailAPIKey      string
	EmailFrom        string
	TextProviderURL  string
	TextAPIKey       string

	// Where the notifiers reach the dispatch function; defaults to the
	// local server so a single deployment works out of the box
	DispatchURL string

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment. Required settings are
// fatal when absent.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	dispatchURL := os.Getenv("DISPATCH_URL")
	if dispatchURL == "" {
		dispatchURL = "http://127.0.0.1:" + port + "/functions/notify"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		EmailProviderURL: os.Getenv("EMAIL_PROVIDER_URL"),
		EmailAPIKey:      os.Getenv("EMAIL_API_KEY"),
		EmailFrom:        os.Getenv("EMAIL_FROM"),
		TextProviderURL:  os.Getenv("TEXT_PROVIDER_URL"),
		TextAPIKey:       os.Getenv("TEXT_API_KEY"),

		DispatchURL: dispatchURL,

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}
