package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./cinx.db" {
			t.Errorf("expected database path ./cinx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Catalog.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("expected catalog base URL, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.RateLimit != 4.0 {
			t.Errorf("expected rate limit 4.0, got %v", config.Catalog.RateLimit)
		}

		if config.Logging.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Logging.Level)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Setenv(EnvCatalogToken, "")
		t.Setenv(EnvCatalogAPIKey, "")

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[catalog]
access_token = "token"
timeout_seconds = 3
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Catalog.AccessToken != "token" {
			t.Errorf("expected access token, got %q", config.Catalog.AccessToken)
		}
		if config.Catalog.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Catalog.Timeout())
		}
		if config.Catalog.Language != "en-US" {
			t.Errorf("expected unset keys to keep defaults, got language %q", config.Catalog.Language)
		}
	})

	t.Run("LoadConfig with invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv overrides credentials", func(t *testing.T) {
		t.Setenv(EnvCatalogToken, "env-token")
		t.Setenv(EnvCatalogAPIKey, "env-key")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Catalog.AccessToken != "env-token" || config.Catalog.APIKey != "env-key" {
			t.Errorf("expected env credentials, got %+v", config.Catalog)
		}
	})

	t.Run("Timeout default", func(t *testing.T) {
		if got := (CatalogConfig{}).Timeout(); got != 15*time.Second {
			t.Errorf("expected 15s default timeout, got %v", got)
		}
	})
}
