package factories

import (
	"context"
	"errors"

	"voicechat/core"
	chathandler "voicechat/handlers/chat"
	"voicechat/handlers/playback"
	"voicechat/handlers/transport"
	"voicechat/store"
)

// Session holds what every client session shares: the settings, the
// responder backend and the conversation history.
type Session struct {
	Settings      SettingsConfig
	Responder     chathandler.Responder
	Conversations *store.ConversationStore
}

// NewSession builds the responder and loads the stored conversations.
func NewSession(settings SettingsConfig, logger *core.Logger) (*Session, error) {
	responder, err := BuildResponder(settings.Responder, logger)
	if err != nil {
		return nil, err
	}
	conversations := store.NewConversationStore(store.NewFileStore(settings.DataDir))
	if err := conversations.Load(); err != nil {
		return nil, err
	}
	return &Session{
		Settings:      settings,
		Responder:     responder,
		Conversations: conversations,
	}, nil
}

// BuildHandlers implements HandlerBuilder.
//
// TransportInput → Chat → Playback → TransportOutput
func (s *Session) BuildHandlers(svc transport.ITransportService, ctx context.Context) ([]core.IHandler, error) {
	if s.Responder == nil || s.Conversations == nil {
		return nil, errors.New("session: responder and conversations are required")
	}
	logger := core.SessionLoggerFromContext(ctx)
	if logger == nil {
		logger = core.GetLogger()
	}

	transportWrapper := transport.NewTransportHandlerWrapper(svc, s.Settings.Transport, logger)
	chatHandler := chathandler.NewChatHandler(s.Responder, s.Conversations, s.Settings.Chat, logger)
	playbackHandler := playback.NewPlaybackHandler(svc.SpeechDevice(), s.Settings.Playback, logger)

	return []core.IHandler{
		transportWrapper.GetInputHandler(),
		chatHandler,
		playbackHandler,
		transportWrapper.GetOutputHandler(),
	}, nil
}
