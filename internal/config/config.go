// Package config loads fsttool settings from YAML, with environment
// overrides for the settings operators change most.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"GoFST/internal/automaton"
	"GoFST/internal/fst"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "GOFST_LOG_LEVEL"
	EnvDB       = "GOFST_DB"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config configures fsttool.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// DB is the path of the dictionary store.
	DB string `yaml:"db"`

	// LockTimeout bounds how long opening the store waits for its lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// InputType is the label width of built FSTs: byte1, byte2 or byte4.
	InputType string `yaml:"input_type"`

	// Outputs is the output algebra of built FSTs: int, bytes or none.
	Outputs string `yaml:"outputs"`

	Builder fst.BuilderOptions `yaml:"builder"`
	Fuzzy   FuzzyConfig        `yaml:"fuzzy"`

	// MaxDeterminizedStates caps subset construction for wildcard and
	// union queries.
	MaxDeterminizedStates int `yaml:"max_determinized_states"`

	// Limit caps the number of keys a query prints. 0 means no limit.
	Limit int `yaml:"limit"`
}

// FuzzyConfig configures Levenshtein queries.
type FuzzyConfig struct {
	MaxEdits       int  `yaml:"max_edits"`
	Transpositions bool `yaml:"transpositions"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel:    "info",
		DB:          "data/dicts.db",
		LockTimeout: time.Second,
		InputType:   fst.InputByte1.String(),
		Outputs:     "int",
		Builder:     fst.DefaultBuilderOptions(),
		Fuzzy: FuzzyConfig{
			MaxEdits:       1,
			Transpositions: true,
		},
		MaxDeterminizedStates: automaton.MaxDFAStates,
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvDB); v != "" {
		c.DB = v
	}
}

// Validate checks every setting.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DB == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("%w: lock_timeout %s", ErrInvalidConfig, c.LockTimeout)
	}
	if _, err := fst.ParseInputType(c.InputType); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Outputs {
	case "int", "bytes", "none":
	default:
		return fmt.Errorf("%w: outputs %q", ErrInvalidConfig, c.Outputs)
	}
	if err := c.Builder.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Fuzzy.MaxEdits < 0 || c.Fuzzy.MaxEdits > automaton.MaxEditDistance {
		return fmt.Errorf("%w: fuzzy.max_edits %d not in [0, %d]", ErrInvalidConfig, c.Fuzzy.MaxEdits, automaton.MaxEditDistance)
	}
	if c.MaxDeterminizedStates <= 0 {
		return fmt.Errorf("%w: max_determinized_states %d", ErrInvalidConfig, c.MaxDeterminizedStates)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: limit %d", ErrInvalidConfig, c.Limit)
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, level)
	}
}
