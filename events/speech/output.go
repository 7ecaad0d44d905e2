package speech

// SpeechCancelEvent asks the playback controller to stop speaking.
type SpeechCancelEvent struct{}

func (e *SpeechCancelEvent) GetId() string {
	return "speech.cancel"
}

// SpeechStartedEvent is sent when the first chunk of a reply starts playing.
type SpeechStartedEvent struct{}

func (e *SpeechStartedEvent) GetId() string {
	return "speech.started"
}

func (e *SpeechStartedEvent) ClientEvent() {}

// SpeechEndedEvent is sent when playback goes back to idle.
type SpeechEndedEvent struct {
	Reason string `json:"reason"` // finished, errored or cancelled
}

func (e *SpeechEndedEvent) GetId() string {
	return "speech.ended"
}

func (e *SpeechEndedEvent) ClientEvent() {}

// CaptureStartedEvent is sent by the client when the microphone opens.
type CaptureStartedEvent struct{}

func (e *CaptureStartedEvent) GetId() string {
	return "capture.started"
}

// CaptureErrorEvent reports a recognition failure from the client.
type CaptureErrorEvent struct {
	Error string `json:"error"`
}

func (e *CaptureErrorEvent) GetId() string {
	return "capture.error"
}

// CaptureConfigEvent configures the client's recognizer.
type CaptureConfigEvent struct {
	Lang           string `json:"lang"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interimResults"`
}

func (e *CaptureConfigEvent) GetId() string {
	return "capture.config"
}

func (e *CaptureConfigEvent) ClientEvent() {}
