// Package config loads tierlab configuration.
//
// Precedence, highest first:
//  1. TIERLAB_* environment variables (a .env file in the working
//     directory is read into the environment first)
//  2. the YAML file passed with --config
//  3. built-in defaults
//
// Environment names map to keys by section: the part after TIERLAB_ up to
// the first underscore is the section and a double underscore descends one
// more level.
//
//	TIERLAB_LLM_PROVIDER            -> llm.provider
//	TIERLAB_STORE_SPREADSHEET_ID    -> store.spreadsheet_id
//	TIERLAB_LLM_GEMINI__API_KEY     -> llm.gemini.api_key
//	TIERLAB_TRACKER_TUTOR_GROUPS    -> tracker.tutor_groups (comma separated)
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/tierlab/internal/analytics"
	"github.com/abhisek/tierlab/internal/assessment"
	"github.com/abhisek/tierlab/internal/llm"
	"github.com/abhisek/tierlab/internal/server"
	"github.com/abhisek/tierlab/internal/store"
	"github.com/abhisek/tierlab/internal/tutor"
)

const (
	envPrefix         = "TIERLAB_"
	maxConfigFileSize = 1 << 20
)

// Config is the whole tierlab configuration.
type Config struct {
	Log       LogConfig         `koanf:"log"`
	Store     store.Config      `koanf:"store"`
	LLM       llm.Config        `koanf:"llm"`
	Tutor     tutor.Config      `koanf:"tutor"`
	Tracker   assessment.Config `koanf:"tracker"`
	Server    server.Config     `koanf:"server"`
	Analytics AnalyticsConfig   `koanf:"analytics"`
}

type LogConfig struct {
	// Mode is "development" or "production".
	Mode  string `koanf:"mode"`
	Level string `koanf:"level"`
}

type AnalyticsConfig struct {
	// ConfidentAt is the lowest confidence ordinal (1 low, 2 medium,
	// 3 high) that counts as confident when classifying answers.
	ConfidentAt int `koanf:"confident_at"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:       LogConfig{Mode: "development", Level: "info"},
		Store:     store.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Tutor:     tutor.DefaultConfig(),
		Tracker:   assessment.DefaultConfig(),
		Server:    server.DefaultConfig(),
		Analytics: AnalyticsConfig{ConfidentAt: analytics.ConfidenceHigh},
	}
}

// Load reads .env, the optional YAML file at path and the environment, in
// that order, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LLM = cfg.LLM.WithDiscoveredKeys()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps TIERLAB_SECTION_FIELD__SUB to section.field.sub.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, rest, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + strings.ReplaceAll(rest, "__", ".")
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return io.ReadAll(f)
}

// Validate checks every section.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("log.mode must be development or production, got %q", c.Log.Mode)
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if c.Tutor.MaxTokens <= 0 {
		return fmt.Errorf("tutor.max_tokens must be positive, got %d", c.Tutor.MaxTokens)
	}
	if c.Tutor.HintMaxTokens <= 0 {
		return fmt.Errorf("tutor.hint_max_tokens must be positive, got %d", c.Tutor.HintMaxTokens)
	}
	if c.Tutor.MaxHistory < 0 {
		return fmt.Errorf("tutor.max_history must not be negative")
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Analytics.ConfidentAt < analytics.ConfidenceLow || c.Analytics.ConfidentAt > analytics.ConfidenceHigh {
		return fmt.Errorf("analytics.confident_at must be between %d and %d, got %d",
			analytics.ConfidenceLow, analytics.ConfidenceHigh, c.Analytics.ConfidentAt)
	}
	return nil
}
