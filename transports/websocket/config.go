package websocket

import "time"

// Config holds the configuration for the browser WebSocket bridge.
type Config struct {
	// Listen address of the HTTP server, e.g. ":8080".
	Listen string `json:"listen"`

	// WebSocket endpoint path.
	Path string `json:"path"`

	// Directory served at "/" for the browser client. Empty disables it.
	StaticDir string `json:"static_dir"`

	ReadBufferSize  int   `json:"read_buffer_size"`
	WriteBufferSize int   `json:"write_buffer_size"`
	MaxMessageSize  int64 `json:"max_message_size"`

	// Deadline for a single write to the client.
	WriteTimeoutSec int `json:"write_timeout_sec"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Listen:          ":8080",
		Path:            "/ws",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxMessageSize:  65536,
		WriteTimeoutSec: 10,
	}
}

func (c Config) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}
