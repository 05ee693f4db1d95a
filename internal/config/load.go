package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/buddy/internal/log"
)

// EnvPrefix prefixes environment overrides, e.g. BUDDY_EMAIL.
const EnvPrefix = "BUDDY"

// setDefaults registers every default with v so environment overrides and
// partial files unmarshal onto them.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("diagnostics", d.Diagnostics)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("fetch.rate_per_second", d.Fetch.RatePerSecond)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads configuration. An explicit cfgFile must exist; otherwise
// .buddy/config.yaml in the working directory is tried, then
// ~/.config/buddy/config.yaml. Missing files yield the defaults. The
// returned path is the file that was read, or the path a new file
// should be written to.
func Load(cfgFile string) (Config, string, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := cfgFile
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(filepath.Join(".buddy", "config.yaml")); err == nil {
			path = filepath.Join(".buddy", "config.yaml")
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case cfgFile == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)):
			log.Debug(log.CatConfig, "no config file, using defaults", "path", path)
		default:
			return Config{}, path, err
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, path, err
	}
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = cfg.TracesPath()
	}
	if err := Validate(cfg); err != nil {
		return Config{}, path, err
	}
	log.Debug(log.CatConfig, "config loaded", "path", path, "data_dir", cfg.DataDir)
	return cfg, path, nil
}
