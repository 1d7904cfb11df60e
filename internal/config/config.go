package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile selects the reconnect behavior of the push channel.
const (
	ProfileWeb    = "web"    // fixed retry interval, tab-lifetime process
	ProfileMobile = "mobile" // exponential backoff, lifecycle-aware
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL     string        `yaml:"api_url"`
	PushURL    string        `yaml:"push_url"`
	UserID     string        `yaml:"user_id"`
	APITimeout time.Duration `yaml:"api_timeout"`

	// Client profile
	Profile string `yaml:"profile"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables.
func Load() Config {
	timeout := 30 * time.Second
	if t := os.Getenv("VIDEOGEN_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return Config{
		APIURL:     getEnv("VIDEOGEN_API_URL", "http://localhost:8080"),
		PushURL:    os.Getenv("VIDEOGEN_WS_URL"), // derived from APIURL when empty
		UserID:     os.Getenv("VIDEOGEN_USER_ID"),
		APITimeout: timeout,
		Profile:    getEnv("VIDEOGEN_PROFILE", ProfileWeb),
		LogFile:    getEnv("VIDEOGEN_LOG_FILE", "/tmp/videogen.log"),
		LogLevel:   parseLogLevel(getEnv("VIDEOGEN_LOG_LEVEL", "INFO")),
	}
}

// LoadFile overlays values from a YAML config file onto cfg. Missing files
// are not an error; a file value only wins where the env left the default.
func LoadFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if os.Getenv("VIDEOGEN_API_URL") == "" && file.APIURL != "" {
		cfg.APIURL = file.APIURL
	}
	if os.Getenv("VIDEOGEN_WS_URL") == "" && file.PushURL != "" {
		cfg.PushURL = file.PushURL
	}
	if os.Getenv("VIDEOGEN_USER_ID") == "" && file.UserID != "" {
		cfg.UserID = file.UserID
	}
	if os.Getenv("VIDEOGEN_API_TIMEOUT") == "" && file.APITimeout > 0 {
		cfg.APITimeout = file.APITimeout
	}
	if os.Getenv("VIDEOGEN_PROFILE") == "" && file.Profile != "" {
		cfg.Profile = file.Profile
	}
	if os.Getenv("VIDEOGEN_LOG_FILE") == "" && file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
