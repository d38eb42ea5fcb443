package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/randomtoy/arcana/internal/logging"
)

// EnvConfigFile names an optional TOML file loaded before the environment.
const EnvConfigFile = "ARCANA_CONFIG"

type Config struct {
	HTTPAddr         string
	LogLevel         slog.Level
	LogFormat        string
	LLMModel         string
	LLMAPIKey        string
	LLMBaseURL       string
	LLMTimeout       time.Duration
	LLMIdleTimeout   time.Duration
	WriteIdleTimeout time.Duration
	ShutdownTimeout  time.Duration
	CatalogPath      string
	PersonaPath      string
	CORSOrigins      []string
}

// fileConfig mirrors Config in the TOML file. Durations are strings.
type fileConfig struct {
	HTTPAddr         string   `toml:"http_addr"`
	LogLevel         string   `toml:"log_level"`
	LogFormat        string   `toml:"log_format"`
	CatalogPath      string   `toml:"catalog_path"`
	PersonaPath      string   `toml:"persona_path"`
	CORSOrigins      []string `toml:"cors_origins"`
	WriteIdleTimeout string   `toml:"write_idle_timeout"`
	ShutdownTimeout  string   `toml:"shutdown_timeout"`
	LLM              struct {
		Model       string `toml:"model"`
		APIKey      string `toml:"api_key"`
		BaseURL     string `toml:"base_url"`
		Timeout     string `toml:"timeout"`
		IdleTimeout string `toml:"idle_timeout"`
	} `toml:"llm"`
}

// Load builds the configuration from defaults, then the file named by
// ARCANA_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	var fc fileConfig
	if path := os.Getenv(EnvConfigFile); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	c := Config{
		HTTPAddr:    envOr("HTTP_ADDR", or(fc.HTTPAddr, ":8080")),
		LogFormat:   envOr("LOG_FORMAT", or(fc.LogFormat, "json")),
		LLMModel:    envOr("LLM_MODEL", or(fc.LLM.Model, "deepseek-chat")),
		LLMAPIKey:   envOr("LLM_API_KEY", fc.LLM.APIKey),
		LLMBaseURL:  envOr("LLM_BASE_URL", or(fc.LLM.BaseURL, "https://api.deepseek.com")),
		CatalogPath: envOr("CATALOG_PATH", fc.CatalogPath),
		PersonaPath: envOr("PERSONA_PATH", fc.PersonaPath),
		CORSOrigins: fc.CORSOrigins,
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	var err error
	durations := []struct {
		env, file string
		def       time.Duration
		dst       *time.Duration
	}{
		{"LLM_TIMEOUT", fc.LLM.Timeout, 10 * time.Second, &c.LLMTimeout},
		{"LLM_IDLE_TIMEOUT", fc.LLM.IdleTimeout, 60 * time.Second, &c.LLMIdleTimeout},
		{"WRITE_IDLE_TIMEOUT", fc.WriteIdleTimeout, 30 * time.Second, &c.WriteIdleTimeout},
		{"SHUTDOWN_TIMEOUT", fc.ShutdownTimeout, 10 * time.Second, &c.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.env, d.file, d.def); err != nil {
			return Config{}, err
		}
	}

	level, err := logging.ParseLevel(envOr("LOG_LEVEL", or(fc.LogLevel, "info")))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	var errs []error
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat))
	}
	if c.LLMTimeout <= 0 || c.LLMIdleTimeout <= 0 {
		errs = append(errs, errors.New("LLM timeouts must be positive"))
	}
	if c.WriteIdleTimeout < 0 {
		errs = append(errs, errors.New("WRITE_IDLE_TIMEOUT must not be negative"))
	}
	return errors.Join(errs...)
}

// parseDuration prefers the environment, then the file value, then def.
func parseDuration(env, file string, def time.Duration) (time.Duration, error) {
	v, name := os.Getenv(env), env
	if v == "" {
		v, name = file, strings.ToLower(env)
	}
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
