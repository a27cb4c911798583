package application

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines report generation configuration.
type Config struct {
	StorageRoot     string        `yaml:"storage_root"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	DispatchDelay   time.Duration `yaml:"dispatch_delay"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	ContinueOnError bool          `yaml:"continue_on_error"`
}

// LoadConfig loads config from yaml or env. Env values seed the defaults;
// a yaml file named by REPORTS_CONFIG overrides them.
func LoadConfig() (Config, error) {
	cfg := Config{
		StorageRoot:     getenvDefault("REPORTS_STORAGE_ROOT", filepath.FromSlash("var/reports")),
		PublicBaseURL:   getenvDefault("REPORTS_PUBLIC_BASE_URL", "http://localhost:8080"),
		DispatchDelay:   getenvDuration("REPORTS_DISPATCH_DELAY", 30*time.Second),
		Workers:         getenvIntDefault("REPORTS_WORKERS", 2),
		QueueSize:       getenvIntDefault("REPORTS_QUEUE_SIZE", 64),
		ContinueOnError: getenvBoolDefault("REPORTS_CONTINUE_ON_ERROR", false),
	}

	if path := os.Getenv("REPORTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.StorageRoot == "" {
		return cfg, errors.New("reports: storage root required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.DispatchDelay < 0 {
		cfg.DispatchDelay = 0
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
