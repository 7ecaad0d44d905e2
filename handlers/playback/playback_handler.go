package playback

import (
	"errors"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/events/speech"
)

const deviceFailureNotice = "Speech playback failed. The reply is still shown above."

// PlaybackHandler speaks formatted replies and stops playback on barge-in.
type PlaybackHandler struct {
	core.BaseHandler
	controller *Controller
	config     PlaybackConfig

	// touched only from controller callbacks
	announced bool
}

func NewPlaybackHandler(device SpeechDevice, config PlaybackConfig, logger *core.Logger) *PlaybackHandler {
	base := core.NewBaseHandler("PlaybackHandler", nil, logger)
	return &PlaybackHandler{
		BaseHandler: *base,
		controller:  NewController(device, config, base.Logger),
		config:      config,
	}
}

func (h *PlaybackHandler) Controller() *Controller {
	return h.controller
}

func (h *PlaybackHandler) Start() error {
	h.controller.Start(h.Ctx)
	h.controller.OnStateChange(h.onStateChange)
	go h.RunEventLoop(h.HandleEvent)
	return nil
}

func (h *PlaybackHandler) HandleEvent(packet *core.EventPacket) error {
	switch event := packet.Event.(type) {
	case *chat.ChatResponseEvent:
		if h.config.Enabled {
			h.speak(event.Text)
		}
	case *chat.ChatUserMessageEvent, *speech.SpeechCancelEvent, *speech.CaptureStartedEvent:
		h.controller.Cancel()
	case *speech.CaptureErrorEvent:
		h.Logger.Warn("speech capture failed", "error", event.Error)
		h.Emit(&core.NoticeEvent{Message: "Voice input failed: " + event.Error}, core.EventRelayDestinationNextService)
	}
	h.SendPacket(packet)
	return nil
}

func (h *PlaybackHandler) speak(content string) {
	err := h.controller.Speak(content)
	switch {
	case err == nil, errors.Is(err, ErrBlankText), errors.Is(err, ErrStopped):
	case errors.Is(err, ErrNoDevice), errors.Is(err, ErrNoVoice):
		h.Logger.Warn("speech output unavailable", "error", err)
		h.Emit(&core.NoticeEvent{Message: "Speech output is unavailable."}, core.EventRelayDestinationNextService)
	default:
		h.Logger.Warn("speak failed", "error", err)
	}
}

func (h *PlaybackHandler) onStateChange(s State) {
	switch s {
	case StateSpeaking:
		if !h.announced {
			h.announced = true
			h.Emit(&speech.SpeechStartedEvent{}, core.EventRelayDestinationNextService)
		}
	case StateErrored:
		h.Emit(&core.NoticeEvent{Message: deviceFailureNotice}, core.EventRelayDestinationNextService)
		h.endAnnounced("errored")
	case StateFinished:
		h.endAnnounced("finished")
	case StateIdle, StateCancelling:
		h.endAnnounced("cancelled")
	}
}

func (h *PlaybackHandler) endAnnounced(reason string) {
	if !h.announced {
		return
	}
	h.announced = false
	h.Emit(&speech.SpeechEndedEvent{Reason: reason}, core.EventRelayDestinationNextService)
}
