package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting of the engine.
type Config struct {
	// DatabaseURL empty runs the engine on the in-memory store.
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string

	ConfirmationWindow time.Duration
	ExpiryPolicy       string
	ReconcileInterval  time.Duration
	ExplanationMin     int
	ExplanationMax     int
	ResolutionNotesMin int
	RequireProof       bool

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads the configuration from the environment, loading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intVar(getenv, "SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:        getenv("DATABASE_URL"),
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		CORSAllowedOrigins: []string{"*"},
		ExpiryPolicy:       "auto_confirm",
		R2AccountID:        getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    getenv("R2_PUBLIC_BASE_URL"),
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = cfg.CORSAllowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if policy := getenv("EXPIRY_POLICY"); policy != "" {
		if policy != "auto_confirm" && policy != "escalate" {
			return nil, fmt.Errorf("EXPIRY_POLICY must be auto_confirm or escalate, got %q", policy)
		}
		cfg.ExpiryPolicy = policy
	}

	if cfg.ConfirmationWindow, err = durationVar(getenv, "CONFIRMATION_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = durationVar(getenv, "RECONCILE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExplanationMin, err = intVar(getenv, "DISPUTE_EXPLANATION_MIN", 50); err != nil {
		return nil, err
	}
	if cfg.ExplanationMax, err = intVar(getenv, "DISPUTE_EXPLANATION_MAX", 500); err != nil {
		return nil, err
	}
	if cfg.ExplanationMin > cfg.ExplanationMax {
		return nil, fmt.Errorf("DISPUTE_EXPLANATION_MIN (%d) exceeds DISPUTE_EXPLANATION_MAX (%d)", cfg.ExplanationMin, cfg.ExplanationMax)
	}
	if cfg.ResolutionNotesMin, err = intVar(getenv, "RESOLUTION_NOTES_MIN", 10); err != nil {
		return nil, err
	}
	if raw := getenv("REQUIRE_PROOF"); raw != "" {
		if cfg.RequireProof, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid REQUIRE_PROOF environment variable: %w", err)
		}
	}

	return cfg, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, v)
	}
	return v, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return v, nil
}
