package webhook

type WebhookConfig struct {
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`     // Extra request headers, e.g. an API key.
	TimeoutSec int               `json:"timeout_sec,omitempty"` // Whole-request timeout. Zero uses the default.
	SocksProxy string            `json:"socks_proxy,omitempty"` // host:port of a SOCKS5 proxy.
}

func DefaultConfig() WebhookConfig {
	return WebhookConfig{
		TimeoutSec: 60,
	}
}
