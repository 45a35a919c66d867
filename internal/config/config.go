// Package config loads settings from defaults, an optional YAML file, a
// .env file and MITAAN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MITAAN"

// Config holds all settings of the console.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Search  SearchConfig  `mapstructure:"search"`
	Console ConsoleConfig `mapstructure:"console"`
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// MutationsPerMinute throttles writes client-side; zero disables it.
	MutationsPerMinute int `mapstructure:"mutations_per_minute"`
}

type CacheConfig struct {
	StaleTime       time.Duration `mapstructure:"stale_time"`
	SearchStaleTime time.Duration `mapstructure:"search_stale_time"`
}

type SearchConfig struct {
	MinQueryLength int `mapstructure:"min_query_length"`
}

type ConsoleConfig struct {
	DefaultAuthor string        `mapstructure:"default_author"`
	Language      string        `mapstructure:"language"`
	ToastDuration time.Duration `mapstructure:"toast_duration"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Options controls where Load looks for settings. Empty fields use the
// standard locations.
type Options struct {
	// File is the YAML config file. It need not exist.
	File string
	// EnvFile is a dotenv file loaded into the process environment. It
	// need not exist.
	EnvFile string
	// Dir overrides the config directory holding the default file, the
	// credential store and the log.
	Dir string
	// Flags are consulted for the keys in FlagBindings. Only flags the
	// user set take precedence over the other sources.
	Flags *pflag.FlagSet
}

// FlagBindings maps command-line flag names to config keys.
var FlagBindings = map[string]string{
	"api":       "api.base_url",
	"log-level": "log.level",
	"log-file":  "log.file",
	"lang":      "console.language",
}

// Dir returns the default config directory, ~/.config/mitaan.
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "mitaan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mitaan")
}

// DefaultFile returns the config file path inside dir.
func DefaultFile(dir string) string {
	return filepath.Join(dir, "config.yaml")
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	if opts.Dir == "" {
		opts.Dir = Dir()
	}
	if opts.File == "" {
		opts.File = DefaultFile(opts.Dir)
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
	}

	v := viper.New()
	setDefaults(v, opts.Dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigFile(opts.File)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.mutations_per_minute", 30)

	v.SetDefault("cache.stale_time", "30s")
	v.SetDefault("cache.search_stale_time", "5m")

	v.SetDefault("search.min_query_length", 3)

	v.SetDefault("console.default_author", "Shridhar Rao")
	v.SetDefault("console.language", "")
	v.SetDefault("console.toast_duration", "3s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "mitaan.log"))

	v.SetDefault("store.path", filepath.Join(dir, "credentials.db"))
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	switch c.Console.Language {
	case "", "en", "hi":
	default:
		return fmt.Errorf("console.language %q must be en or hi", c.Console.Language)
	}
	if c.Search.MinQueryLength < 1 {
		return errors.New("search.min_query_length must be positive")
	}
	if c.API.MutationsPerMinute < 0 {
		return errors.New("api.mutations_per_minute must not be negative")
	}
	return nil
}

// Keys lists the settings Set accepts.
func Keys() []string {
	return []string{
		"api.base_url", "api.timeout", "api.mutations_per_minute",
		"cache.stale_time", "cache.search_stale_time",
		"search.min_query_length",
		"console.default_author", "console.language", "console.toast_duration",
		"log.level", "log.file",
		"store.path",
	}
}

// Set writes one key to the YAML file at path, keeping the other keys.
// The file is replaced atomically.
func Set(path, key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !os.IsNotExist(err):
		return err
	}

	section, field, _ := strings.Cut(key, ".")
	sub, _ := doc[section].(map[string]any)
	if sub == nil {
		sub = map[string]any{}
	}
	sub[field] = value
	doc[section] = sub

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return writeAtomic(path, out)
}

func validKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// writeAtomic writes to a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "config-*.yaml.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
