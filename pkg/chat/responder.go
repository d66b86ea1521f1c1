// Package chat is the conversational panel. Requests are sent to an LLM
// through gollm with the active device folded into the prompt.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"

	"github.com/b/device-console/pkg/config"
)

var ErrNoResponder = errors.New("chat is not configured: set chat.api_key or the provider's API key variable")

// Responder answers one prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// GollmResponder sends prompts through a gollm client.
type GollmResponder struct {
	client  llm.LLM
	timeout time.Duration
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "llama3"
	default:
		return "claude-3-5-haiku-latest"
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	}
	return ""
}

// NewGollmResponder builds a responder from cfg. The API key comes from
// cfg.APIKey, then the provider's environment variable.
func NewGollmResponder(cfg config.Chat) (*GollmResponder, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "anthropic"
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel(provider)
	}

	env := apiKeyEnv(provider)
	apiKey := cfg.APIKey
	if apiKey == "" && env != "" {
		apiKey = os.Getenv(env)
	}
	if apiKey == "" && provider != "ollama" {
		return nil, fmt.Errorf("%w (provider %s)", ErrNoResponder, provider)
	}
	// gollm reads provider keys from the environment
	if env != "" {
		os.Setenv(env, apiKey)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	client, err := gollm.NewLLM(
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(maxTokens),
		gollm.SetTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GollmResponder{client: client, timeout: timeout}, nil
}

func (g *GollmResponder) Respond(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.client.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// BuildPrompt wraps the user's request with device context and a note on
// device actions. The responder cannot call tools, so the model is asked
// to suggest actions rather than report them as done.
func BuildPrompt(userPrompt, deviceID string, hasDevice bool) string {
	var parts []string
	if hasDevice {
		parts = append(parts,
			fmt.Sprintf("**Device ID**: %s", deviceID),
			"Refer to this device_id in any device steps you suggest.",
		)
	}
	parts = append(parts, "**Device Actions**: You cannot act on the device from this console. "+
		"When the request needs device actions, list them as steps the user can run, "+
		"using app control (start_app, stop_app, press_key, screenshot), "+
		"UI interaction (click, send_text, swipe, dump_hierarchy) "+
		"or UI inspection (get_element_info, wait_for_element).\n\n"+
		"Never say an action was performed.")

	return strings.Join(parts, "\n") + "\n\n---\n\n**User Request**:\n" + userPrompt
}
