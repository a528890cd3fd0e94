package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the application.
type Config struct {
	// Database
	DBDriver   string
	DBName     string
	DBUser     string
	DBHost     string
	DBPassword string
	DBPort     int

	// Planner
	CandidateLimit   int
	PlannerObjective string
	PlannerServings  bool
	MaxServings      int
	NodeLimit        int
	PlanArchiveDir   string

	IngestLockPath string
	Debug          bool

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
	BotListenPort          string
}

// LoadDotEnv loads variables from a local .env file into the process
// environment. Variables already set are left untouched. A missing file is
// only an error when required is true.
func LoadDotEnv(path string, required bool) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	dbName := os.Getenv("DB")
	if dbName == "" {
		return nil, fmt.Errorf("DB environment variable not set")
	}

	cfg := &Config{
		DBDriver:         driver,
		DBName:           dbName,
		DBUser:           os.Getenv("DB_USER"),
		DBHost:           os.Getenv("HOST"),
		DBPassword:       os.Getenv("PASSWORD"),
		PlannerObjective: os.Getenv("PLANNER_OBJECTIVE"),
		PlanArchiveDir:   os.Getenv("PLAN_ARCHIVE_DIR"),
		IngestLockPath:   os.Getenv("INGEST_LOCK_PATH"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		BotListenPort:      os.Getenv("BOT_LISTEN_PORT"),
	}

	if driver == DriverPostgres {
		// The server credentials are only meaningful for postgres.
		for _, key := range []string{"DB_USER", "HOST", "PASSWORD"} {
			if os.Getenv(key) == "" {
				return nil, fmt.Errorf("%s environment variable not set", key)
			}
		}
	}

	var err error
	if cfg.DBPort, err = intFromEnv("PORT", 5432, 1); err != nil {
		return nil, err
	}
	if cfg.CandidateLimit, err = intFromEnv("CANDIDATE_LIMIT", 2100, 1); err != nil {
		return nil, err
	}
	// 0 lifts the per-recipe serving cap.
	if cfg.MaxServings, err = intFromEnv("PLANNER_MAX_SERVINGS", 3, 0); err != nil {
		return nil, err
	}
	if cfg.NodeLimit, err = intFromEnv("PLANNER_NODE_LIMIT", 5000, 1); err != nil {
		return nil, err
	}
	if cfg.AdminTelegramID, err = int64FromEnv("TELEGRAM_ADMIN_ID"); err != nil {
		return nil, err
	}

	if cfg.Debug, err = boolFromEnv("LOG_DEBUG"); err != nil {
		return nil, err
	}
	if cfg.PlannerServings, err = boolFromEnv("PLANNER_SERVINGS"); err != nil {
		return nil, err
	}

	if cfg.PlannerObjective == "" {
		cfg.PlannerObjective = "min-calories"
	}
	if cfg.BotListenPort == "" {
		cfg.BotListenPort = "8080"
	}
	if cfg.IngestLockPath == "" {
		cfg.IngestLockPath = defaultLockPath(cfg)
	}

	for _, raw := range strings.Split(os.Getenv("TELEGRAM_ALLOW_USER_IDS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS entry %q: %w", raw, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}

	return cfg, nil
}

func defaultLockPath(cfg *Config) string {
	if cfg.DBDriver == DriverSQLite {
		return cfg.DBName + ".ingest.lock"
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("meal-planner-%s.ingest.lock", cfg.DBName))
}

func intFromEnv(key string, fallback, min int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n < min {
		return 0, fmt.Errorf("%s must be at least %d, got %d", key, min, n)
	}
	return n, nil
}

func int64FromEnv(key string) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func boolFromEnv(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
