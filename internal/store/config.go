package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type GlobalConfig struct {
	// CurrentThread is used by thread-scoped commands when --thread is omitted.
	CurrentThread string `yaml:"currentThread,omitempty" json:"currentThread,omitempty"`

	Actor    string `yaml:"actor,omitempty" json:"actor,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`

	Serve ServeConfig `yaml:"serve,omitempty" json:"serve,omitempty"`
	TUI   TUIConfig   `yaml:"tui,omitempty" json:"tui,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `yaml:"glyphs,omitempty" json:"glyphs,omitempty"`
}

var configKeys = map[string]func(c *GlobalConfig) *string{
	"currentThread": func(c *GlobalConfig) *string { return &c.CurrentThread },
	"actor":         func(c *GlobalConfig) *string { return &c.Actor },
	"logLevel":      func(c *GlobalConfig) *string { return &c.LogLevel },
	"serve.addr":    func(c *GlobalConfig) *string { return &c.Serve.Addr },
	"tui.glyphs":    func(c *GlobalConfig) *string { return &c.TUI.Glyphs },
}

// ConfigKeys lists the keys accepted by Get and Set.
func ConfigKeys() []string {
	out := make([]string, 0, len(configKeys))
	for k := range configKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *GlobalConfig) Get(key string) (string, error) {
	f, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return *f(c), nil
}

func (c *GlobalConfig) Set(key, value string) error {
	f, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	*f(c) = strings.TrimSpace(value)
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.replytree).
	if v := strings.TrimSpace(os.Getenv("REPLYTREE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads the config file. A missing file is an empty config.
func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Unique temp name + rename: the CLI, the TUI and the server may all write concurrently.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}
