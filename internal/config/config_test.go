package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PREDMAINT_CONFIG", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_DEFAULT_REGION", "APP_PORT", "APP_DEBUG", "FLASK_PORT", "FLASK_DEBUG"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 || cfg.Store.Table != "IoT_Sensor_Data" || cfg.Store.DeviceID != "ESP8266_IoT" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Store.Window != 6*time.Hour {
		t.Fatalf("unexpected window: %v", cfg.Store.Window)
	}
	if !cfg.Debug || cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug enabled by default, got debug=%v level=%s", cfg.Debug, cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAEXAMPLE")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("APP_DEBUG", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Region != "eu-west-1" || cfg.Store.AccessKeyID != "AKIAEXAMPLE" {
		t.Fatalf("store overrides not applied: %+v", cfg.Store)
	}
	if cfg.Server.Port != 8081 || cfg.Server.Address() != "0.0.0.0:8081" {
		t.Fatalf("port override not applied: %d", cfg.Server.Port)
	}
	if cfg.Debug || cfg.Logging.Level != "info" {
		t.Fatalf("expected debug disabled, got debug=%v level=%s", cfg.Debug, cfg.Logging.Level)
	}
}

func TestLoadYAMLAndDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	yamlPath := filepath.Join(dir, "config.yaml")
	content := []byte("store:\n  table: Lab_Readings\n  window: 2h\npipeline:\n  path: /srv/pipeline.yaml\ndebug: false\n")
	if err := os.WriteFile(yamlPath, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_PORT=9000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already present, even empty ones.
	os.Unsetenv("APP_PORT")
	t.Cleanup(func() { os.Unsetenv("APP_PORT") })

	cfg, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Table != "Lab_Readings" || cfg.Store.Window != 2*time.Hour {
		t.Fatalf("yaml not applied: %+v", cfg.Store)
	}
	if cfg.Pipeline.Path != "/srv/pipeline.yaml" {
		t.Fatalf("unexpected pipeline path: %s", cfg.Pipeline.Path)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected .env port 9000, got %d", cfg.Server.Port)
	}
}

func TestLoadLegacyFlaskVariables(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("FLASK_PORT", "5050")
	t.Setenv("FLASK_DEBUG", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5050 || cfg.Debug {
		t.Fatalf("legacy variables not applied: port=%d debug=%v", cfg.Server.Port, cfg.Debug)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
