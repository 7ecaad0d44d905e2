package factories

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	chathandler "voicechat/handlers/chat"
	"voicechat/handlers/playback"
	"voicechat/handlers/transport"
	"voicechat/services/espeak"
	"voicechat/transports/websocket"
)

const (
	ModeServer  = "server"
	ModeConsole = "console"
)

// SettingsConfig is the top-level config loaded from settings.json.
type SettingsConfig struct {
	// Mode is "server" (browser over WebSocket) or "console" (stdin/stdout).
	Mode    string `json:"mode"`
	DataDir string `json:"data_dir"`
	// LogDir, when set, receives a rotated per-session JSON log.
	LogDir string `json:"log_dir,omitempty"`

	// Responder is parsed separately so only the providers present in the
	// file are populated.
	Responder ResponderFactoryConfig `json:"-"`

	Chat      chathandler.ChatConfig    `json:"chat"`
	Playback  playback.PlaybackConfig   `json:"playback"`
	Transport transport.TransportConfig `json:"transport"`
	WebSocket websocket.Config          `json:"websocket"`
	// Espeak configures local speech output in console mode.
	Espeak espeak.Config `json:"espeak"`
}

// DefaultSettingsConfig returns a SettingsConfig pre-filled with defaults.
func DefaultSettingsConfig() SettingsConfig {
	return SettingsConfig{
		Mode:      ModeServer,
		DataDir:   "data",
		Chat:      chathandler.DefaultConfig(),
		Playback:  playback.DefaultConfig(),
		Transport: transport.DefaultConfig(),
		WebSocket: websocket.DefaultConfig(),
		Espeak:    espeak.DefaultConfig(),
	}
}

// SettingsConfigFromJSON parses data over the defaults.
func SettingsConfigFromJSON(data []byte) (SettingsConfig, error) {
	cfg := DefaultSettingsConfig()
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return DefaultSettingsConfig(), fmt.Errorf("settings: %w", err)
	}

	var raw struct {
		Responder json.RawMessage `json:"responder,omitempty"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return DefaultSettingsConfig(), fmt.Errorf("settings: %w", err)
	}
	if len(raw.Responder) > 0 {
		responder, err := ResponderFactoryConfigFromJSON(raw.Responder)
		if err != nil {
			return DefaultSettingsConfig(), fmt.Errorf("settings: %w", err)
		}
		cfg.Responder = responder
	}

	if err := cfg.Validate(); err != nil {
		return DefaultSettingsConfig(), err
	}
	return cfg, nil
}

// SettingsConfigFromFile reads and parses a SettingsConfig from a JSON file.
func SettingsConfigFromFile(path string) (SettingsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettingsConfig(), fmt.Errorf("settings: read %q: %w", path, err)
	}
	return SettingsConfigFromJSON(data)
}

// SettingsConfigFromEnv loads settings from SETTINGS_JSON_B64 when set,
// otherwise from the file at path. A missing file yields the defaults.
func SettingsConfigFromEnv(path string) (SettingsConfig, error) {
	if b64 := os.Getenv("SETTINGS_JSON_B64"); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return DefaultSettingsConfig(), fmt.Errorf("settings: decode SETTINGS_JSON_B64: %w", err)
		}
		return SettingsConfigFromJSON(data)
	}

	cfg, err := SettingsConfigFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettingsConfig(), nil
	}
	return cfg, err
}

// APIKeysFromEnv reads responder credentials from the environment.
func APIKeysFromEnv() APIKeys {
	return APIKeys{
		WebhookURL: os.Getenv("WEBHOOK_URL"),
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		Groq:       os.Getenv("GROQ_API_KEY"),
		OpenRouter: os.Getenv("OPENROUTER_API_KEY"),
		Together:   os.Getenv("TOGETHER_API_KEY"),
	}
}

func (c SettingsConfig) Validate() error {
	switch c.Mode {
	case ModeServer, ModeConsole:
	default:
		return fmt.Errorf("settings: unknown mode %q", c.Mode)
	}
	if c.Chat.QueueSize < 1 {
		return errors.New("settings: chat.queue_size must be at least 1")
	}
	return nil
}
