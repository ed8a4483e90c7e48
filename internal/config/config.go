package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Chat destination modes.
const (
	ChatModeFixed    = "fixed"
	ChatModeDiscover = "discover"
)

// Config holds the configuration for the application.
type Config struct {
	// Firebase / Firestore
	FirebaseCredentialsJSON []byte
	FirebaseProjectID       string

	// Telegram Config
	TelegramBotToken    string
	TelegramGroupID     string
	TelegramChatMode    string
	TelegramAPIEndpoint string
	TelegramHTTPTimeout time.Duration
	DiscoveryAttempts   int
	DiscoveryDelay      time.Duration

	// Scheduling
	Timezone         string
	Schedule         string
	LivenessInterval time.Duration

	LogFile      string
	LogLevel     string
	DatabasePath string
	Port         string

	RedisAddr     string
	RedisPassword string
}

// fileConfig mirrors the optional YAML file pointed to by CONFIG_FILE.
// Secrets are never read from it.
type fileConfig struct {
	Telegram struct {
		ChatMode          string        `yaml:"chat_mode"`
		GroupID           string        `yaml:"group_id"`
		APIEndpoint       string        `yaml:"api_endpoint"`
		HTTPTimeout       time.Duration `yaml:"http_timeout"`
		DiscoveryAttempts int           `yaml:"discovery_attempts"`
		DiscoveryDelay    time.Duration `yaml:"discovery_delay"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron             string        `yaml:"cron"`
		Timezone         string        `yaml:"timezone"`
		LivenessInterval time.Duration `yaml:"liveness_interval"`
	} `yaml:"schedule"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Port string `yaml:"port"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		TelegramChatMode:    ChatModeFixed,
		TelegramHTTPTimeout: 30 * time.Second,
		DiscoveryAttempts:   3,
		DiscoveryDelay:      5 * time.Second,
		Timezone:            "America/Los_Angeles",
		Schedule:            "0 12 * * *",
		LivenessInterval:    60 * time.Second,
		LogFile:             "daily_meal_notifier.log",
		LogLevel:            "info",
		DatabasePath:        "data/notifier.db",
		Port:                "8080",
	}
}

// NewFromEnv creates a new Config object from environment variables.
// If CONFIG_FILE is set, the YAML file it names provides defaults that the
// environment overrides.
func NewFromEnv() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	encodedCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64")
	if encodedCreds == "" {
		return nil, fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_BASE64 environment variable not set")
	}
	creds, projectID, err := decodeServiceAccount(encodedCreds)
	if err != nil {
		return nil, err
	}
	cfg.FirebaseCredentialsJSON = creds
	cfg.FirebaseProjectID = projectID
	if v := os.Getenv("FIREBASE_PROJECT_ID"); v != "" {
		cfg.FirebaseProjectID = v
	}
	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID environment variable not set and service account has no project_id")
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	setString(&cfg.TelegramChatMode, "TELEGRAM_CHAT_MODE")
	setString(&cfg.TelegramGroupID, "TELEGRAM_GROUP_ID")
	setString(&cfg.TelegramAPIEndpoint, "TELEGRAM_API_ENDPOINT")
	setString(&cfg.Timezone, "NOTIFY_TIMEZONE")
	setString(&cfg.Schedule, "NOTIFY_SCHEDULE")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.Port, "PORT")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	if err := setInt(&cfg.DiscoveryAttempts, "TELEGRAM_DISCOVERY_ATTEMPTS"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.DiscoveryDelay, "TELEGRAM_DISCOVERY_DELAY"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.TelegramHTTPTimeout, "TELEGRAM_HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.LivenessInterval, "LIVENESS_INTERVAL"); err != nil {
		return nil, err
	}

	switch cfg.TelegramChatMode {
	case ChatModeFixed:
		if cfg.TelegramGroupID == "" {
			return nil, fmt.Errorf("TELEGRAM_GROUP_ID environment variable not set")
		}
	case ChatModeDiscover:
	default:
		return nil, fmt.Errorf("unknown TELEGRAM_CHAT_MODE %q (want %q or %q)", cfg.TelegramChatMode, ChatModeFixed, ChatModeDiscover)
	}

	if cfg.DiscoveryAttempts < 1 {
		return nil, fmt.Errorf("TELEGRAM_DISCOVERY_ATTEMPTS must be at least 1, got %d", cfg.DiscoveryAttempts)
	}
	if cfg.DiscoveryDelay < 0 {
		return nil, fmt.Errorf("TELEGRAM_DISCOVERY_DELAY must not be negative, got %s", cfg.DiscoveryDelay)
	}
	if cfg.LivenessInterval <= 0 {
		return nil, fmt.Errorf("LIVENESS_INTERVAL must be positive, got %s", cfg.LivenessInterval)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the configured notification time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	override(&c.TelegramChatMode, fc.Telegram.ChatMode)
	override(&c.TelegramGroupID, fc.Telegram.GroupID)
	override(&c.TelegramAPIEndpoint, fc.Telegram.APIEndpoint)
	override(&c.Schedule, fc.Schedule.Cron)
	override(&c.Timezone, fc.Schedule.Timezone)
	override(&c.LogFile, fc.Log.File)
	override(&c.LogLevel, fc.Log.Level)
	override(&c.DatabasePath, fc.Database.Path)
	override(&c.RedisAddr, fc.Redis.Addr)
	override(&c.Port, fc.Port)

	if fc.Telegram.HTTPTimeout > 0 {
		c.TelegramHTTPTimeout = fc.Telegram.HTTPTimeout
	}
	if fc.Telegram.DiscoveryAttempts > 0 {
		c.DiscoveryAttempts = fc.Telegram.DiscoveryAttempts
	}
	if fc.Telegram.DiscoveryDelay > 0 {
		c.DiscoveryDelay = fc.Telegram.DiscoveryDelay
	}
	if fc.Schedule.LivenessInterval > 0 {
		c.LivenessInterval = fc.Schedule.LivenessInterval
	}
	return nil
}

// decodeServiceAccount turns the base64 service-account blob into raw JSON
// and extracts its project_id.
func decodeServiceAccount(encoded string) ([]byte, string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_BASE64: %w", err)
	}

	var account struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, "", fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_BASE64 is not a JSON service account: %w", err)
	}
	return raw, account.ProjectID, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setString(dst *string, key string) {
	override(dst, os.Getenv(key))
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
