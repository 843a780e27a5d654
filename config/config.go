package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server reads from the environment. It is
// loaded once in main and handed to the pieces that need it.
type Config struct {
	Port    string
	GinMode string

	MongoURI string
	DBName   string

	JWTSecret    string
	JWTExpiresIn time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// AssetBaseURL prefixes product image paths in checkout line items,
	// e.g. https://qm-server.example.com
	AssetBaseURL string

	ClientBaseURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// .env is optional; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		MongoURI:            os.Getenv("MONGO_URI"),
		DBName:              os.Getenv("DB_NAME"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "https://qm-client.netlify.app/my-orders"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "https://qm-client.netlify.app"),
		AssetBaseURL:        getEnv("ASSET_BASE_URL", "http://localhost:8080"),
		ClientBaseURL:       getEnv("CLIENT_BASE_URL", "https://qm-client.netlify.app"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		EmailFrom:           getEnv("EMAIL_FROM", "QuickMart <noreply@quickmart.io>"),
	}

	if cfg.MongoURI == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("config: MONGO_URI and DB_NAME must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set")
	}

	expires := getEnv("JWT_EXPIRES_IN", "24h")
	d, err := time.ParseDuration(expires)
	if err != nil {
		return nil, fmt.Errorf("config: invalid JWT_EXPIRES_IN %q: %w", expires, err)
	}
	cfg.JWTExpiresIn = d

	port := getEnv("SMTP_PORT", "587")
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("config: invalid SMTP_PORT %q: %w", port, err)
	}
	cfg.SMTPPort = p

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
