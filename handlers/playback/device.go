package playback

type DeviceEventKind int

const (
	DeviceStart DeviceEventKind = iota + 1
	DeviceEnd
	DeviceError
	DeviceVoicesChanged
)

func (k DeviceEventKind) String() string {
	switch k {
	case DeviceStart:
		return "start"
	case DeviceEnd:
		return "end"
	case DeviceError:
		return "error"
	case DeviceVoicesChanged:
		return "voices_changed"
	}
	return "unknown"
}

// DeviceEvent is reported by a SpeechDevice for an utterance it was given.
// Session and Index echo the utterance. They are unset for
// DeviceVoicesChanged.
type DeviceEvent struct {
	Kind    DeviceEventKind
	Session uint64
	Index   int
	Err     error
}

// Utterance is one chunk handed to the device.
type Utterance struct {
	Session uint64
	Index   int
	Text    string // What the device speaks.
	Chunk   string // The chunk without the turn prefix.
	Voice   Voice
	Lang    string
	Rate    float64
	Pitch   float64
	Volume  float64
}

type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Local   bool   `json:"local"`
	Default bool   `json:"default"`
}

// SpeechDevice synthesizes utterances and reports their progress on Events.
// Speak must not block until the utterance is spoken. Cancel drops the
// current and queued utterances; events for them may still arrive.
type SpeechDevice interface {
	Speak(u Utterance) error
	Cancel() error
	Voices() []Voice
	Events() <-chan DeviceEvent
}
