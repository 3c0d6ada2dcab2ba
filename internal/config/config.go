package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the predictive-maintenance API.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
	History  HistoryConfig  `yaml:"history"`
	Debug    bool           `yaml:"debug"`
}

// ServerConfig controls the HTTP, metrics and gRPC health listeners.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	HealthAddress   string        `yaml:"healthAddress"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// Address returns the HTTP listen address derived from Port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("0.0.0.0:%d", s.Port)
}

// StoreConfig configures access to the DynamoDB sensor table.
type StoreConfig struct {
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"accessKeyID"`
	SecretAccessKey string        `yaml:"secretAccessKey"`
	Endpoint        string        `yaml:"endpoint"`
	Table           string        `yaml:"table"`
	DeviceID        string        `yaml:"deviceID"`
	Window          time.Duration `yaml:"window"`
	ProbeTimeout    time.Duration `yaml:"probeTimeout"`
}

// PipelineConfig points at the serialized scoring pipeline.
type PipelineConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HistoryConfig controls how many predictions are retained in process.
type HistoryConfig struct {
	Size int `yaml:"size"`
}

// Load initialises Config from defaults, an optional YAML file, an optional
// .env file and finally the process environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PREDMAINT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(&cfg)
	if cfg.Debug {
		cfg.Logging.Level = "debug"
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            5000,
			MetricsAddress:  ":2112",
			HealthAddress:   "",
			RequestTimeout:  10 * time.Second,
			GracefulTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Store: StoreConfig{
			Region:       "us-east-1",
			Table:        "IoT_Sensor_Data",
			DeviceID:     "ESP8266_IoT",
			Window:       6 * time.Hour,
			ProbeTimeout: 5 * time.Second,
		},
		Pipeline: PipelineConfig{Path: "pipeline.yaml"},
		Logging:  LoggingConfig{Level: "info", JSON: false},
		History:  HistoryConfig{Size: 10},
		Debug:    true,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Store.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Store.SecretAccessKey = v
	}
	if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		cfg.Store.Region = v
	}
	if v := firstEnv("APP_PORT", "FLASK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := firstEnv("APP_DEBUG", "FLASK_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// firstEnv returns the first non-empty variable; FLASK_* names are accepted
// for deployments carried over from the previous backend.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
