package config

import (
	"github.com/b/device-console/pkg/paths"
)

type Config struct {
	ADB       ADB       `yaml:"adb" mapstructure:"adb"`
	Scenarios Scenarios `yaml:"scenarios" mapstructure:"scenarios"`
	History   History   `yaml:"history" mapstructure:"history"`
	Chat      Chat      `yaml:"chat" mapstructure:"chat"`
	Layout    Layout    `yaml:"layout" mapstructure:"layout"`
	Bindings  Bindings  `yaml:"bindings" mapstructure:"bindings"`
	Theme     Theme     `yaml:"theme" mapstructure:"theme"`
}

type ADB struct {
	Path           string `yaml:"path" mapstructure:"path"`                       // Empty: $ANDROID_HOME/platform-tools/adb, then PATH
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // Per adb invocation (default: 5)
}

type Scenarios struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // One sub-directory per scenario holding scenario.json
}

type History struct {
	BackendURL     string `yaml:"backend_url" mapstructure:"backend_url"`         // Serves GET /api/actions/history
	RefreshSeconds int    `yaml:"refresh_seconds" mapstructure:"refresh_seconds"` // 0 disables polling
}

type Chat struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // anthropic, openai, ollama
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"` // Falls back to the provider's env var
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type Layout struct {
	ViewerWidthPercent int `yaml:"viewer_width_percent" mapstructure:"viewer_width_percent"` // Left column share, 20-80
}

type Bindings struct {
	ToggleScenarios string `yaml:"toggle_scenarios" mapstructure:"toggle_scenarios"`
	ToggleHistory   string `yaml:"toggle_history" mapstructure:"toggle_history"`
	FocusNext       string `yaml:"focus_next" mapstructure:"focus_next"`
	Quit            string `yaml:"quit" mapstructure:"quit"`
}

type Theme struct {
	Mode        string `yaml:"mode" mapstructure:"mode"` // auto, dark, light
	Accent      string `yaml:"accent" mapstructure:"accent"`
	ButtonBg    string `yaml:"button_bg" mapstructure:"button_bg"`
	BorderFg    string `yaml:"border_fg" mapstructure:"border_fg"`
	FocusFg     string `yaml:"focus_fg" mapstructure:"focus_fg"`
	ErrorFg     string `yaml:"error_fg" mapstructure:"error_fg"`
	StatusStrip string `yaml:"status_strip" mapstructure:"status_strip"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ADB: ADB{TimeoutSeconds: 5},
		Scenarios: Scenarios{
			Dir: paths.ScenariosDir(),
		},
		History: History{
			BackendURL:     "http://127.0.0.1:8000",
			RefreshSeconds: 5,
		},
		Chat: Chat{
			Provider:       "anthropic",
			MaxTokens:      1024,
			TimeoutSeconds: 60,
		},
		Layout: Layout{ViewerWidthPercent: 40},
		Bindings: Bindings{
			ToggleScenarios: "f2",
			ToggleHistory:   "f3",
			FocusNext:       "tab",
			Quit:            "ctrl+c",
		},
		Theme: Theme{
			Mode:        "auto",
			Accent:      "#3498db",
			ButtonBg:    "#2c3e50",
			BorderFg:    "#5c6370",
			FocusFg:     "#f39c12",
			ErrorFg:     "#e74c3c",
			StatusStrip: "#16a085",
		},
	}
}

// DefaultConfigPath returns the config location resolved by the paths package.
func DefaultConfigPath() string {
	return paths.ConfigPath()
}
