package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidLayout    = errors.New("layout.viewer_width_percent must be between 20 and 80")
	ErrDuplicateBinding = errors.New("key binding used more than once")
	ErrEmptyBinding     = errors.New("key binding must not be empty")
	ErrInvalidTheme     = errors.New("theme.mode must be auto, dark or light")
)

// LoadConfig reads the config at path, layering it over Default. A missing
// file is not an error. CONSOLE_* environment variables override file values
// (e.g. CONSOLE_CHAT_MODEL overrides chat.model).
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("adb.path", cfg.ADB.Path)
	v.SetDefault("adb.timeout_seconds", cfg.ADB.TimeoutSeconds)
	v.SetDefault("scenarios.dir", cfg.Scenarios.Dir)
	v.SetDefault("history.backend_url", cfg.History.BackendURL)
	v.SetDefault("history.refresh_seconds", cfg.History.RefreshSeconds)
	v.SetDefault("chat.provider", cfg.Chat.Provider)
	v.SetDefault("chat.model", cfg.Chat.Model)
	v.SetDefault("chat.api_key", cfg.Chat.APIKey)
	v.SetDefault("chat.max_tokens", cfg.Chat.MaxTokens)
	v.SetDefault("chat.timeout_seconds", cfg.Chat.TimeoutSeconds)
	v.SetDefault("layout.viewer_width_percent", cfg.Layout.ViewerWidthPercent)
	v.SetDefault("bindings.toggle_scenarios", cfg.Bindings.ToggleScenarios)
	v.SetDefault("bindings.toggle_history", cfg.Bindings.ToggleHistory)
	v.SetDefault("bindings.focus_next", cfg.Bindings.FocusNext)
	v.SetDefault("bindings.quit", cfg.Bindings.Quit)
	v.SetDefault("theme.mode", cfg.Theme.Mode)
	v.SetDefault("theme.accent", cfg.Theme.Accent)
	v.SetDefault("theme.button_bg", cfg.Theme.ButtonBg)
	v.SetDefault("theme.border_fg", cfg.Theme.BorderFg)
	v.SetDefault("theme.focus_fg", cfg.Theme.FocusFg)
	v.SetDefault("theme.error_fg", cfg.Theme.ErrorFg)
	v.SetDefault("theme.status_strip", cfg.Theme.StatusStrip)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Scenarios.Dir = os.ExpandEnv(cfg.Scenarios.Dir)
	cfg.ADB.Path = os.ExpandEnv(cfg.ADB.Path)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the config to the specified path, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the console cannot lay out or bind.
func Validate(cfg *Config) error {
	if p := cfg.Layout.ViewerWidthPercent; p < 20 || p > 80 {
		return fmt.Errorf("%w: got %d", ErrInvalidLayout, p)
	}
	switch cfg.Theme.Mode {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidTheme, cfg.Theme.Mode)
	}

	seen := make(map[string]string)
	for name, key := range map[string]string{
		"toggle_scenarios": cfg.Bindings.ToggleScenarios,
		"toggle_history":   cfg.Bindings.ToggleHistory,
		"focus_next":       cfg.Bindings.FocusNext,
		"quit":             cfg.Bindings.Quit,
	} {
		if key == "" {
			return fmt.Errorf("%w: bindings.%s", ErrEmptyBinding, name)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q bound to %s and %s", ErrDuplicateBinding, key, other, name)
		}
		seen[key] = name
	}
	return nil
}
