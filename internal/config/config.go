// Package config collects the settlement layer's runtime configuration.
// Values are read from the environment once at startup; components receive
// explicit config structs and never touch the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AgoraConfig holds the media-provider credentials used to sign RTC tokens.
type AgoraConfig struct {
	AppID          string
	AppCertificate string
	TokenTTL       time.Duration
}

// PaystackConfig holds the payment-provider credentials. The secret key
// both authenticates API calls and verifies webhook signatures.
type PaystackConfig struct {
	SecretKey   string
	CallbackURL string
}

// AuthConfig holds the HS256 secret used to validate caller access tokens.
type AuthConfig struct {
	JWTSecret string
}

// RateLimitConfig bounds per-client traffic on the public endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Config is the full gateway configuration.
type Config struct {
	ListenAddr     string
	DatabaseURL    string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	RateLimit      RateLimitConfig

	Agora    AgoraConfig
	Paystack PaystackConfig
	Auth     AuthConfig
}

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	cfg := Config{
		ListenAddr:  envOr("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "text"),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Agora: AgoraConfig{
			AppID:          os.Getenv("AGORA_APP_ID"),
			AppCertificate: os.Getenv("AGORA_APP_CERTIFICATE"),
			TokenTTL:       time.Hour,
		},
		Paystack: PaystackConfig{
			SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
			CallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
	}

	if ttl := os.Getenv("AGORA_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.Agora.TokenTTL = d
		}
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil && v > 0 {
			cfg.RateLimit.RequestsPerSecond = v
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil && v > 0 {
			cfg.RateLimit.Burst = v
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"*"}
	}

	return cfg
}

// Validate checks the settings the gateway cannot run without.
func (c Config) Validate() error {
	if c.Agora.AppID == "" || c.Agora.AppCertificate == "" {
		return fmt.Errorf("AGORA_APP_ID and AGORA_APP_CERTIFICATE must be set")
	}
	if c.Paystack.SecretKey == "" {
		return fmt.Errorf("PAYSTACK_SECRET_KEY must be set")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
