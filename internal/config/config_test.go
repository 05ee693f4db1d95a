package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/tracing"
)

func TestDefaults_Valid(t *testing.T) {
	d := Defaults()
	require.NoError(t, Validate(d))
	require.Equal(t, 3.0, d.Fetch.RatePerSecond)
	require.Equal(t, 24*time.Hour, d.Cache.TTL)
	require.False(t, d.Tracing.Enabled)
	require.Equal(t, filepath.Join(d.DataDir, "buddy.db"), d.DatabasePath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"good email", func(c *Config) { c.Email = "me@example.org" }, ""},
		{"bad email", func(c *Config) { c.Email = "not an email" }, "email"},
		{"bad user hash", func(c *Config) { c.UserHash = "abc" }, "user_hash"},
		{"good user hash", func(c *Config) { c.UserHash = NewUserHash() }, ""},
		{"zero rate", func(c *Config) { c.Fetch.RatePerSecond = 0 }, "fetch.rate_per_second"},
		{"negative timeout", func(c *Config) { c.Fetch.Timeout = -time.Second }, "fetch.timeout"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"known tool alias", func(c *Config) { c.Tools = map[string]string{"clustalo": "/opt/clustalo"} }, ""},
		{"unknown tool", func(c *Config) { c.Tools = map[string]string{"blast": "/bin/blast"} }, "tools.blast"},
		{"empty binary", func(c *Config) { c.Tools = map[string]string{"mafft": ""} }, "binary must not be empty"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterOTLP
			c.Tracing.OTLPEndpoint = ""
		}, "otlp_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToolBinaries_Canonical(t *testing.T) {
	cfg := Defaults()
	cfg.Tools = map[string]string{"clustalo": "/opt/clustalo", "MAFFT": "/opt/mafft", "nope": "x"}
	require.Equal(t, map[string]string{
		"clustalomega": "/opt/clustalo",
		"mafft":        "/opt/mafft",
	}, cfg.ToolBinaries())
}

func TestWriteDefaultConfig_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, 3.0, cfg.Fetch.RatePerSecond)
	require.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, tracing.ExporterFile, cfg.Tracing.Exporter)
	require.Equal(t, cfg.TracesPath(), cfg.Tracing.FilePath)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/buddy-data
email: me@example.org
cache:
  ttl: 1h
fetch:
  rate_per_second: 10
tools:
  clustalo: /opt/clustalo
flags:
  serial-fetch: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/buddy-data", cfg.DataDir)
	require.Equal(t, "me@example.org", cfg.Email)
	require.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Equal(t, 10.0, cfg.Fetch.RatePerSecond)
	require.Equal(t, "/opt/clustalo", cfg.Tools["clustalo"])
	require.True(t, cfg.Flags["serial-fetch"])
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: me@example.org\n"), 0o600))
	t.Setenv("BUDDY_EMAIL", "other@example.org")
	t.Setenv("BUDDY_FETCH_RATE_PER_SECOND", "7")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "other@example.org", cfg.Email)
	require.Equal(t, 7.0, cfg.Fetch.RatePerSecond)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  rate_per_second: 0\n"), 0o600))
	_, _, err := Load(path)
	require.ErrorContains(t, err, "rate_per_second")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := Load("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "buddy", "config.yaml"), path)
	require.Equal(t, filepath.Join(home, ".local", "share", "buddy"), cfg.DataDir)
}

func TestLoad_ProjectFileWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(".buddy", 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(".buddy", "config.yaml"), []byte("diagnostics: true\n"), 0o600))

	cfg, path, err := Load("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(".buddy", "config.yaml"), path)
	require.True(t, cfg.Diagnostics)
}
