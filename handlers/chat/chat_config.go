package chat

import "time"

type ChatConfig struct {
	ResponseTimeoutSec int `json:"response_timeout_sec"` // Upper bound for one responder call.
	QueueSize          int `json:"queue_size"`           // User messages waiting for a reply.
}

// DefaultConfig returns a ChatConfig with sensible defaults.
func DefaultConfig() ChatConfig {
	return ChatConfig{
		ResponseTimeoutSec: 90,
		QueueSize:          8,
	}
}

func (c ChatConfig) responseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutSec) * time.Second
}
