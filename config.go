package memdb

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of Options.
type Config struct {
	// Verbose enables per-write debug logging
	Verbose bool `yaml:"verbose"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// BTreeDegree is the degree of every index B-tree
	BTreeDegree int `yaml:"btree_degree"`

	// DefaultCleanupAge is the tombstone age used by CleanupExpired
	DefaultCleanupAge time.Duration `yaml:"default_cleanup_age"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		BTreeDegree:       defaultBTreeDegree,
		DefaultCleanupAge: 30 * 24 * time.Hour,
	}
}

// ParseConfig parses YAML on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// LoadFromEnv overrides cfg with MEMDB_ environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MEMDB_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("MEMDB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEMDB_BTREE_DEGREE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BTreeDegree = n
		}
	}
	if v := os.Getenv("MEMDB_DEFAULT_CLEANUP_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DefaultCleanupAge = d
		}
	}
}

func (cfg *Config) Validate() error {
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.BTreeDegree < 2 {
		return fmt.Errorf("btree_degree must be at least 2, got %d", cfg.BTreeDegree)
	}
	if cfg.DefaultCleanupAge < 0 {
		return fmt.Errorf("default_cleanup_age must not be negative, got %v", cfg.DefaultCleanupAge)
	}
	return nil
}

// Options builds Options that log to w in text form.
func (cfg *Config) Options(w io.Writer) Options {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if cfg.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return Options{
		Logger:            slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		Verbose:           cfg.Verbose,
		BTreeDegree:       cfg.BTreeDegree,
		DefaultCleanupAge: cfg.DefaultCleanupAge,
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level: %s (must be debug, info, warn or error)", s)
	}
}
