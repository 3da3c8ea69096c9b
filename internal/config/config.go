package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BOOKCASE_API_BASE_URL.
const EnvPrefix = "BOOKCASE"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bookcase", "config.yml")
}

// Path resolves the config file location: an explicit path wins, then
// BOOKCASE_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return ExpandHome(explicit)
	}
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return ExpandHome(p)
	}
	return DefaultPath()
}

// Load reads the config from disk (or env). A missing file is fine; the
// defaults apply and `bookcase init` can write one. A .env file in the
// working directory is loaded first without overriding the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the conventional DATABASE_URL works too
	_ = v.BindEnv("serve.database_url", EnvPrefix+"_SERVE_DATABASE_URL", "DATABASE_URL")

	v.SetConfigFile(Path(path))
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, the init command creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Defaults returns the built-in configuration, ignoring files and the
// environment.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("lookup.base_url", "https://openlibrary.org")
	v.SetDefault("lookup.timeout", 10*time.Second)
	v.SetDefault("serve.host", "127.0.0.1")
	v.SetDefault("serve.port", 3000)
	v.SetDefault("serve.database_url", "")
	v.SetDefault("serve.rate_limit", 2.0)
	v.SetDefault("serve.burst", 4)
	v.SetDefault("ui.toast_seconds", 3)
}

// Save writes the config to path (DefaultPath when empty).
func Save(cfg *Config, path string) error {
	path = Path(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return enc.Close()
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
