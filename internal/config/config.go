// Package config loads server settings from BOARD_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/text/language"
)

// DefaultSourceURL is the assignment endpoint serving {tickets, users}.
const DefaultSourceURL = "https://api.quicksell.co/v1/internal/frontend-assignment"

type Config struct {
	HTTPAddr    string // BOARD_HTTP_ADDR (default ":8080")
	GRPCAddr    string // BOARD_GRPC_ADDR (default ":9090")
	DatabaseURL string // BOARD_DATABASE_URL (optional, empty = in-memory store)
	NATSURL     string // BOARD_NATS_URL (optional, empty = no events)
	AuthToken   string // BOARD_AUTH_TOKEN (optional, empty = auth disabled)

	// Data source
	SourceURL    string        // BOARD_SOURCE_URL (default DefaultSourceURL)
	SourceFile   string        // BOARD_SOURCE_FILE (wins over SourceURL when set)
	FetchTimeout time.Duration // BOARD_FETCH_TIMEOUT (default 10s)

	// Title collation
	Locale language.Tag // BOARD_LOCALE (default "en")

	// Sync settings
	SyncInterval   time.Duration // BOARD_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // BOARD_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // BOARD_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // BOARD_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // BOARD_SYNC_S3_KEY (default "board/export.jsonl")
	SyncGitRepo    string        // BOARD_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // BOARD_SYNC_GIT_FILE (default "board.jsonl")
	SyncGitBranch  string        // BOARD_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:       envOrDefault("BOARD_HTTP_ADDR", ":8080"),
		GRPCAddr:       envOrDefault("BOARD_GRPC_ADDR", ":9090"),
		DatabaseURL:    os.Getenv("BOARD_DATABASE_URL"),
		NATSURL:        os.Getenv("BOARD_NATS_URL"),
		AuthToken:      os.Getenv("BOARD_AUTH_TOKEN"),
		SourceURL:      envOrDefault("BOARD_SOURCE_URL", DefaultSourceURL),
		SourceFile:     os.Getenv("BOARD_SOURCE_FILE"),
		SyncS3Bucket:   os.Getenv("BOARD_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("BOARD_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("BOARD_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("BOARD_SYNC_S3_KEY", "board/export.jsonl"),
		SyncGitRepo:    os.Getenv("BOARD_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("BOARD_SYNC_GIT_FILE", "board.jsonl"),
		SyncGitBranch:  envOrDefault("BOARD_SYNC_GIT_BRANCH", "main"),
	}

	var err error
	if c.FetchTimeout, err = envDuration("BOARD_FETCH_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = envDuration("BOARD_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}
	if c.FetchTimeout < 0 || c.SyncInterval < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}

	c.Locale, err = language.Parse(envOrDefault("BOARD_LOCALE", "en"))
	if err != nil {
		return nil, fmt.Errorf("BOARD_LOCALE: %w", err)
	}

	return c, nil
}

// SyncEnabled reports whether any export destination is configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
