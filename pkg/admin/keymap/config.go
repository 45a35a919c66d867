package keymap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents user key binding configuration.
type Config struct {
	// Bindings maps "context:key" to command ID
	// Example: {"list:ctrl+n": "new-record", "global:ctrl+q": "quit"}
	Bindings map[string]string `yaml:"bindings"`
}

// ConfigPath returns the path to the keymap file inside the config dir.
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, "keymap.yaml")
}

// LoadConfig loads key binding overrides. A missing file yields an empty
// config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Bindings: make(map[string]string)}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Bindings == nil {
		cfg.Bindings = make(map[string]string)
	}
	return &cfg, nil
}

// ApplyConfig applies user configuration overrides to the registry.
func ApplyConfig(r *Registry, cfg *Config) {
	for binding, cmdStr := range cfg.Bindings {
		ctx, key := parseBinding(binding)
		if key == "" {
			continue
		}
		r.SetUserOverride(ctx, key, Command(cmdStr))
	}
}

// parseBinding splits "context:key"; a bare key is global.
func parseBinding(s string) (Context, string) {
	if ctx, key, ok := strings.Cut(s, ":"); ok {
		return Context(ctx), key
	}
	return ContextGlobal, s
}
