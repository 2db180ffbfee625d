package config

import (
	"testing"
	"time"
)

var allEnvVars = []string{
	"BOARD_HTTP_ADDR", "BOARD_GRPC_ADDR", "BOARD_DATABASE_URL", "BOARD_NATS_URL",
	"BOARD_AUTH_TOKEN", "BOARD_SOURCE_URL", "BOARD_SOURCE_FILE", "BOARD_FETCH_TIMEOUT",
	"BOARD_LOCALE", "BOARD_SYNC_INTERVAL", "BOARD_SYNC_S3_BUCKET", "BOARD_SYNC_S3_ENDPOINT",
	"BOARD_SYNC_S3_REGION", "BOARD_SYNC_S3_KEY", "BOARD_SYNC_GIT_REPO",
	"BOARD_SYNC_GIT_FILE", "BOARD_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tc := range []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"GRPCAddr", cfg.GRPCAddr, ":9090"},
		{"DatabaseURL", cfg.DatabaseURL, ""},
		{"SourceURL", cfg.SourceURL, DefaultSourceURL},
		{"FetchTimeout", cfg.FetchTimeout, 10 * time.Second},
		{"Locale", cfg.Locale.String(), "en"},
		{"SyncInterval", cfg.SyncInterval, 3 * time.Minute},
		{"SyncS3Region", cfg.SyncS3Region, "us-east-1"},
		{"SyncS3Key", cfg.SyncS3Key, "board/export.jsonl"},
		{"SyncGitFile", cfg.SyncGitFile, "board.jsonl"},
		{"SyncGitBranch", cfg.SyncGitBranch, "main"},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
	if cfg.SyncEnabled() {
		t.Error("sync should be disabled without destinations")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("BOARD_HTTP_ADDR", ":3000")
	t.Setenv("BOARD_GRPC_ADDR", ":5050")
	t.Setenv("BOARD_DATABASE_URL", "postgres://db:5432/board")
	t.Setenv("BOARD_NATS_URL", "nats://localhost:4222")
	t.Setenv("BOARD_SOURCE_FILE", "/tmp/snapshot.json")
	t.Setenv("BOARD_FETCH_TIMEOUT", "2s")
	t.Setenv("BOARD_LOCALE", "sv")
	t.Setenv("BOARD_SYNC_S3_BUCKET", "exports")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.GRPCAddr != ":5050" {
		t.Errorf("addresses = %q, %q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.DatabaseURL != "postgres://db:5432/board" || cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("urls = %q, %q", cfg.DatabaseURL, cfg.NATSURL)
	}
	if cfg.SourceFile != "/tmp/snapshot.json" || cfg.FetchTimeout != 2*time.Second {
		t.Errorf("source = %q, %v", cfg.SourceFile, cfg.FetchTimeout)
	}
	if cfg.Locale.String() != "sv" {
		t.Errorf("Locale = %v", cfg.Locale)
	}
	if !cfg.SyncEnabled() {
		t.Error("sync should be enabled with an S3 bucket")
	}
}

func TestLoad_Errors(t *testing.T) {
	for _, tc := range []struct {
		key, value string
	}{
		{"BOARD_SYNC_INTERVAL", "not-a-duration"},
		{"BOARD_FETCH_TIMEOUT", "soon"},
		{"BOARD_FETCH_TIMEOUT", "-1s"},
		{"BOARD_LOCALE", "not a locale!"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoadSyncDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("BOARD_SYNC_INTERVAL", "0s")
	t.Setenv("BOARD_SYNC_GIT_REPO", "/srv/export")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 || cfg.SyncEnabled() {
		t.Errorf("SyncInterval = %v, enabled = %v; want disabled", cfg.SyncInterval, cfg.SyncEnabled())
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
