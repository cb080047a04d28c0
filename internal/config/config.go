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

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// Environment variables that override the file.
const (
	EnvServiceURL = "TALLY_SERVICE_URL"
	EnvToken      = "TALLY_TOKEN"
	EnvLogLevel   = "TALLY_LOG_LEVEL"
	EnvLogFormat  = "TALLY_LOG_FORMAT"
	EnvPageSize   = "TALLY_PAGE_SIZE"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Service     ServiceConfig         `yaml:"service"`
	Logging     LoggingConfig         `yaml:"logging"`
	Locations   []string              `yaml:"locations,omitempty"`
	Levies      []model.LevySelection `yaml:"levies,omitempty"`
	Search      SearchConfig          `yaml:"search"`
	ActivityLog string                `yaml:"activity_log"` // empty disables
}

// ServiceConfig locates the ledger service.
type ServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Token   string        `yaml:"token,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`           // "console" or "json"
	Output string `yaml:"output,omitempty"` // stderr, stdout or a file path
}

// SearchConfig controls paged search.
type SearchConfig struct {
	PageSize int           `yaml:"page_size"`
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config pointing at a local stub.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:     "http://localhost:8089",
			Timeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Search: SearchConfig{
			PageSize: 20,
			Debounce: 300 * time.Millisecond,
		},
		ActivityLog: "activity.csv",
	}
}

// LoadEnv loads .env files into the process environment. Missing files
// are skipped; variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvServiceURL); ok {
		cfg.Service.URL = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok {
		cfg.Service.Token = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		cfg.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvPageSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.Search.PageSize = n
	}
	return nil
}

// Validate checks the settings the client cannot run without.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Service.URL) == "" {
		problems = append(problems, "service.url is required")
	}
	if c.Service.Timeout < 0 {
		problems = append(problems, "service.timeout must not be negative")
	}
	if c.Search.PageSize <= 0 {
		problems = append(problems, "search.page_size must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	if err := money.ValidateLevies(c.Levies); err != nil {
		problems = append(problems, "levies: "+err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
