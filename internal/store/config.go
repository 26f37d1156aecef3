package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loon-cli/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	configFileName  = "config.yaml"
	apiKeyEnvPrefix = "LOON_API_KEY_"
)

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.loon).
	if v := strings.TrimSpace(os.Getenv("LOON_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loon"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// fileConfig mirrors config.yaml. Pointer fields distinguish "absent" from
// zero so the file only overrides what it sets.
type fileConfig struct {
	Navigation *struct {
		CircularSiblings *bool `yaml:"circularSiblings"`
	} `yaml:"navigation"`
	APIKeys      map[string]string          `yaml:"apiKeys"`
	ModelCards   map[string]model.ModelCard `yaml:"modelCards"`
	DefaultCount int                        `yaml:"defaultCount"`
	MaxCount     int                        `yaml:"maxCount"`
}

// LoadFileConfig reads config.yaml merged over the built-in defaults. A missing
// file yields the defaults.
func LoadFileConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return mergeConfig(cfg, fc)
}

// LoadConfig is LoadFileConfig plus API keys from LOON_API_KEY_<SERVICE>
// environment variables, which win over keys in the file.
func LoadConfig() (model.Config, error) {
	cfg, err := LoadFileConfig()
	if err != nil {
		return cfg, err
	}
	for service, key := range envAPIKeys() {
		cfg.APIKeys[service] = key
	}
	return cfg, nil
}

func mergeConfig(cfg model.Config, fc fileConfig) (model.Config, error) {
	if fc.Navigation != nil && fc.Navigation.CircularSiblings != nil {
		cfg.Navigation.CircularSiblings = *fc.Navigation.CircularSiblings
	}
	for service, key := range fc.APIKeys {
		service = strings.TrimSpace(service)
		if service == "" || strings.TrimSpace(key) == "" {
			continue
		}
		cfg.APIKeys[service] = strings.TrimSpace(key)
	}
	for name, card := range fc.ModelCards {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.TrimSpace(card.Model) == "" || strings.TrimSpace(card.Endpoint) == "" {
			return cfg, fmt.Errorf("model card %q: model and endpoint are required", name)
		}
		switch card.Format {
		case "":
			card.Format = model.FormatChat
		case model.FormatChat, model.FormatCompletion:
		default:
			return cfg, fmt.Errorf("model card %q: unknown format %q", name, card.Format)
		}
		if card.Name == "" {
			card.Name = name
		}
		cfg.ModelCards[name] = card
	}
	if fc.DefaultCount > 0 {
		cfg.DefaultCount = fc.DefaultCount
	}
	if fc.MaxCount > 0 {
		cfg.MaxCount = fc.MaxCount
	}
	if cfg.DefaultCount > cfg.MaxCount {
		cfg.DefaultCount = cfg.MaxCount
	}
	return cfg, nil
}

// envAPIKeys maps LOON_API_KEY_OPEN_ROUTER=... to {"open-router": ...}.
func envAPIKeys() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, apiKeyEnvPrefix) || strings.TrimSpace(v) == "" {
			continue
		}
		service := strings.ToLower(strings.TrimPrefix(k, apiKeyEnvPrefix))
		service = strings.ReplaceAll(service, "_", "-")
		if service != "" {
			out[service] = strings.TrimSpace(v)
		}
	}
	return out
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

// SaveConfig writes cfg to config.yaml. Keys that only came from the
// environment are not written.
func SaveConfig(cfg model.Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out := cfg.Clone()
	for service, key := range envAPIKeys() {
		if out.APIKeys[service] == key {
			delete(out.APIKeys, service)
		}
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	// The file holds API keys.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}
