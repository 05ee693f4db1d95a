// Package config provides configuration types, defaults and validation for buddy.
package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/tool"
	"github.com/zjrosen/buddy/internal/tracing"
)

// Config holds all configuration options for buddy.
type Config struct {
	// DataDir holds the session database and trace files.
	DataDir string `mapstructure:"data_dir"`
	// Email is sent to NCBI with every E-utilities request.
	Email string `mapstructure:"email"`
	// UserHash identifies this installation in diagnostics.
	UserHash    string            `mapstructure:"user_hash"`
	Diagnostics bool              `mapstructure:"diagnostics"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Tools       map[string]string `mapstructure:"tools"` // tool name -> binary override
	Tracing     tracing.Config    `mapstructure:"tracing"`
	Flags       map[string]bool   `mapstructure:"flags"`
}

// CacheConfig controls the summary and alignment caches.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// FetchConfig controls remote database requests.
type FetchConfig struct {
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// DefaultDataDir returns ~/.local/share/buddy, or .buddy when the home
// directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".buddy"
	}
	return filepath.Join(home, ".local", "share", "buddy")
}

// DefaultConfigPath returns ~/.config/buddy/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".buddy", "config.yaml")
	}
	return filepath.Join(home, ".config", "buddy", "config.yaml")
}

// DatabasePath is the session database inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "buddy.db")
}

// TracesPath is the default trace file inside DataDir.
func (c Config) TracesPath() string {
	return filepath.Join(c.DataDir, "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	return Config{
		DataDir: DefaultDataDir(),
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Fetch: FetchConfig{
			RatePerSecond: 3,
			Timeout:       30 * time.Second,
		},
		Tools:   map[string]string{},
		Tracing: tc,
		Flags:   map[string]bool{},
	}
}

// NewUserHash returns a fresh installation id.
func NewUserHash() string {
	return uuid.NewString()
}

// Validate checks cfg for errors. Empty optional values are accepted.
func Validate(cfg Config) error {
	if cfg.Email != "" {
		if _, err := mail.ParseAddress(cfg.Email); err != nil {
			return fmt.Errorf("email %q is not a valid address", cfg.Email)
		}
	}
	if cfg.UserHash != "" {
		if _, err := uuid.Parse(cfg.UserHash); err != nil {
			return fmt.Errorf("user_hash %q is not a uuid", cfg.UserHash)
		}
	}
	if cfg.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("fetch.rate_per_second must be greater than 0, got %v", cfg.Fetch.RatePerSecond)
	}
	if cfg.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", cfg.Cache.TTL)
	}
	if err := ValidateTools(cfg.Tools); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTools checks that every override names a supported aligner.
func ValidateTools(tools map[string]string) error {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := tool.Lookup(name); err != nil {
			return fmt.Errorf("tools.%s: %w (supported: %v)", name, err, tool.Names())
		}
		if tools[name] == "" {
			return fmt.Errorf("tools.%s: binary must not be empty", name)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}
	if tc.Exporter != "" && !tracing.ValidExporter(tc.Exporter) {
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}
	if tc.Enabled && tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ToolBinaries returns the overrides keyed by canonical tool name.
func (c Config) ToolBinaries() map[string]string {
	out := make(map[string]string, len(c.Tools))
	for name, bin := range c.Tools {
		if a, err := tool.Lookup(name); err == nil {
			out[a.Name] = bin
		}
	}
	return out
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# buddy configuration

# Where sessions, the summary cache and traces are stored
# data_dir: ~/.local/share/buddy

# Sent to NCBI with every E-utilities request
# email: you@example.org

# Anonymous installation id, generated on first run
# user_hash: ""

diagnostics: false

cache:
  ttl: 24h            # how long fetched summaries and tool results are reused

fetch:
  rate_per_second: 3  # per backend; NCBI allows 3 without an API key
  timeout: 30s

# Binary overrides for alignment tools (mafft, muscle, clustalw,
# clustalomega, prank, pagan)
# tools:
#   clustalomega: /opt/clustal/bin/clustalo

tracing:
  enabled: false
  exporter: file      # none, file, stdout, otlp
  # file_path: ~/.local/share/buddy/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
# flags:
#   serial-fetch: false   # query remote databases one backend at a time
#   tool-cache: false     # reuse alignments for repeated tool runs on identical input
#   summary-cache: false  # keep fetched summaries in the session database
`
}

// WriteDefaultConfig creates a config file at configPath with default
// settings and comments, creating the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
