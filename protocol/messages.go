package protocol

import "encoding/json"

// MessageType enumerates the browser bridge message types. Client-bound
// pipeline events use their event id as the type.
type MessageType string

const (
	// Client -> server
	MsgChatMessage        MessageType = "chat.message"
	MsgCaptureStarted     MessageType = "capture.started"
	MsgCaptureResult      MessageType = "capture.result"
	MsgCaptureError       MessageType = "capture.error"
	MsgSpeechCancel       MessageType = "speech.cancel"
	MsgConversationNew    MessageType = "conversation.new"
	MsgConversationSelect MessageType = "conversation.select"
	MsgConversationDelete MessageType = "conversation.delete"
	MsgDeviceVoices       MessageType = "device.voices"
	MsgDeviceStart        MessageType = "device.start"
	MsgDeviceEnd          MessageType = "device.end"
	MsgDeviceError        MessageType = "device.error"

	// Server -> client
	MsgHello        MessageType = "hello"
	MsgDeviceSpeak  MessageType = "device.speak"
	MsgDeviceCancel MessageType = "device.cancel"
)

// Envelope is the outer JSON wrapper for all WebSocket messages.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Client -> server payloads ---

type ChatMessagePayload struct {
	Text string `json:"text"`
}

type CaptureResultPayload struct {
	Transcript string `json:"transcript"`
}

type CaptureErrorPayload struct {
	Error string `json:"error"`
}

type ConversationPayload struct {
	ID string `json:"id"`
}

type VoicePayload struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Local   bool   `json:"localService"`
	Default bool   `json:"default"`
}

// DeviceVoicesPayload lists the synthesis voices available in the browser.
type DeviceVoicesPayload struct {
	Voices []VoicePayload `json:"voices"`
}

// DeviceProgressPayload reports start, end or error of an utterance.
type DeviceProgressPayload struct {
	Session uint64 `json:"session"`
	Index   int    `json:"index"`
	Error   string `json:"error,omitempty"`
}

// --- Server -> client payloads ---

type HelloPayload struct {
	SessionID string `json:"sessionId"`
}

// DeviceSpeakPayload asks the browser to synthesize one utterance.
type DeviceSpeakPayload struct {
	Session uint64  `json:"session"`
	Index   int     `json:"index"`
	Text    string  `json:"text"`
	Voice   string  `json:"voice"`
	Lang    string  `json:"lang"`
	Rate    float64 `json:"rate"`
	Pitch   float64 `json:"pitch"`
	Volume  float64 `json:"volume"`
}
