package factories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"voicechat/core"
	chathandler "voicechat/handlers/chat"
	openaillm "voicechat/services/openai/llm"
	"voicechat/services/webhook"
)

// ResponderFactoryConfig selects the backend that answers user messages.
// Set exactly one field. The OpenAI-compatible providers share the OpenAI
// client with a provider base URL.
type ResponderFactoryConfig struct {
	Webhook    *webhook.WebhookConfig `json:"webhook,omitempty"`
	OpenAI     *openaillm.Config      `json:"openai,omitempty"`
	Groq       *openaillm.Config      `json:"groq,omitempty"`
	OpenRouter *openaillm.Config      `json:"openrouter,omitempty"`
	Together   *openaillm.Config      `json:"together,omitempty"`
}

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openrouterBaseURL = "https://openrouter.ai/api/v1"
	togetherBaseURL   = "https://api.together.xyz/v1"
)

// APIKeys holds responder credentials read from the environment so they are
// not stored in settings files.
type APIKeys struct {
	WebhookURL string
	OpenAI     string
	Groq       string
	OpenRouter string
	Together   string
}

// ResponderFactoryConfigFromJSON fills only the providers present in data,
// each starting from its defaults.
func ResponderFactoryConfigFromJSON(data []byte) (ResponderFactoryConfig, error) {
	var raw struct {
		Webhook    json.RawMessage `json:"webhook,omitempty"`
		OpenAI     json.RawMessage `json:"openai,omitempty"`
		Groq       json.RawMessage `json:"groq,omitempty"`
		OpenRouter json.RawMessage `json:"openrouter,omitempty"`
		Together   json.RawMessage `json:"together,omitempty"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return ResponderFactoryConfig{}, fmt.Errorf("responder: %w", err)
	}

	var cfg ResponderFactoryConfig
	if len(raw.Webhook) > 0 {
		c := webhook.DefaultConfig()
		if err := sonic.Unmarshal(raw.Webhook, &c); err != nil {
			return ResponderFactoryConfig{}, fmt.Errorf("responder webhook: %w", err)
		}
		cfg.Webhook = &c
	}

	openaiCompat := []struct {
		name    string
		raw     []byte
		baseURL string
		dst     **openaillm.Config
	}{
		{"openai", raw.OpenAI, "", &cfg.OpenAI},
		{"groq", raw.Groq, groqBaseURL, &cfg.Groq},
		{"openrouter", raw.OpenRouter, openrouterBaseURL, &cfg.OpenRouter},
		{"together", raw.Together, togetherBaseURL, &cfg.Together},
	}
	for _, p := range openaiCompat {
		if len(p.raw) == 0 {
			continue
		}
		c := openaillm.DefaultConfig()
		c.BaseURL = p.baseURL
		if err := sonic.Unmarshal(p.raw, &c); err != nil {
			return ResponderFactoryConfig{}, fmt.Errorf("responder %s: %w", p.name, err)
		}
		*p.dst = &c
	}
	return cfg, nil
}

// InjectAPIKeys fills credentials that were left out of the settings file.
// A webhook URL in the environment selects the webhook backend when no
// backend is configured.
func (c *ResponderFactoryConfig) InjectAPIKeys(keys APIKeys) {
	if keys.WebhookURL != "" {
		if c.Webhook == nil && c.configured() == 0 {
			wc := webhook.DefaultConfig()
			c.Webhook = &wc
		}
		if c.Webhook != nil && c.Webhook.URL == "" {
			c.Webhook.URL = keys.WebhookURL
		}
	}
	if keys.OpenAI != "" && c.configured() == 0 {
		oc := openaillm.DefaultConfig()
		c.OpenAI = &oc
	}

	inject := func(cfg *openaillm.Config, key string) {
		if cfg != nil && cfg.APIKey == "" {
			cfg.APIKey = key
		}
	}
	inject(c.OpenAI, keys.OpenAI)
	inject(c.Groq, keys.Groq)
	inject(c.OpenRouter, keys.OpenRouter)
	inject(c.Together, keys.Together)
}

func (c ResponderFactoryConfig) configured() int {
	n := 0
	for _, set := range []bool{c.Webhook != nil, c.OpenAI != nil, c.Groq != nil, c.OpenRouter != nil, c.Together != nil} {
		if set {
			n++
		}
	}
	return n
}

// BuildResponder constructs the configured backend.
func BuildResponder(cfg ResponderFactoryConfig, logger *core.Logger) (chathandler.Responder, error) {
	switch n := cfg.configured(); {
	case n == 0:
		return nil, errors.New("responder: no backend configured; set a webhook url or an OpenAI key")
	case n > 1:
		return nil, errors.New("responder: exactly one backend must be configured")
	}

	if cfg.Webhook != nil {
		client, err := webhook.NewClient(*cfg.Webhook, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	llmConfig := cfg.OpenAI
	for _, c := range []*openaillm.Config{cfg.Groq, cfg.OpenRouter, cfg.Together} {
		if c != nil {
			llmConfig = c
		}
	}
	responder, err := openaillm.NewOpenAIResponder(*llmConfig, logger)
	if err != nil {
		return nil, err
	}
	return responder, nil
}
