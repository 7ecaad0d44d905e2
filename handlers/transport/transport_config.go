package transport

import (
	"voicechat/core"
	"voicechat/handlers/playback"
)

// ITransportService is one connected client.
type ITransportService interface {
	core.IService
	SessionID() string
	// StartReceiving decodes client messages into events until the client
	// goes away, then reports io.EOF or the read error on errorChan.
	StartReceiving(outputChan chan<- core.IEvent, errorChan chan<- error)
	SendEvent(event core.IClientEvent) error
	// SpeechDevice returns the client's synthesis device, or nil.
	SpeechDevice() playback.SpeechDevice
}

type TransportConfig struct {
	CaptureLanguage string `json:"capture_language"` // Recognition language sent to the client.
}

// DefaultConfig returns a TransportConfig with sensible defaults.
func DefaultConfig() TransportConfig {
	return TransportConfig{
		CaptureLanguage: "en-US",
	}
}
