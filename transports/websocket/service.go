package websocket

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/events/speech"
	"voicechat/handlers/playback"
	"voicechat/protocol"
)

type inputDecoder func(env protocol.Envelope) (core.IEvent, error)

// Service is one browser connection. It implements
// transport.ITransportService and exposes the browser's speech synthesis as
// a playback.SpeechDevice.
type Service struct {
	id     string
	conn   *websocket.Conn
	config Config
	logger *core.Logger
	device *BrowserDevice

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	registry map[protocol.MessageType]inputDecoder
}

func NewService(id string, conn *websocket.Conn, config Config, logger *core.Logger) *Service {
	if logger == nil {
		logger = core.GetLogger()
	}
	s := &Service{
		id:       id,
		conn:     conn,
		config:   config,
		logger:   logger.With(map[string]interface{}{"session": id}),
		done:     make(chan struct{}),
		registry: make(map[protocol.MessageType]inputDecoder),
	}
	s.device = newBrowserDevice(s.send, s.done)
	s.registerInputEvents()
	return s
}

// RegisterInputEvent maps a client message type to a pipeline event.
func (s *Service) RegisterInputEvent(msgType protocol.MessageType, decode inputDecoder) {
	s.registry[msgType] = decode
}

func (s *Service) registerInputEvents() {
	s.RegisterInputEvent(protocol.MsgChatMessage, decodeAs(func(p protocol.ChatMessagePayload) core.IEvent {
		return &chat.ChatUserMessageEvent{Text: p.Text, Source: chat.SourceTyped}
	}))
	s.RegisterInputEvent(protocol.MsgCaptureResult, decodeAs(func(p protocol.CaptureResultPayload) core.IEvent {
		return &chat.ChatUserMessageEvent{Text: p.Transcript, Source: chat.SourceVoice}
	}))
	s.RegisterInputEvent(protocol.MsgCaptureStarted, decodeAs(func(struct{}) core.IEvent {
		return &speech.CaptureStartedEvent{}
	}))
	s.RegisterInputEvent(protocol.MsgCaptureError, decodeAs(func(p protocol.CaptureErrorPayload) core.IEvent {
		return &speech.CaptureErrorEvent{Error: p.Error}
	}))
	s.RegisterInputEvent(protocol.MsgSpeechCancel, decodeAs(func(struct{}) core.IEvent {
		return &speech.SpeechCancelEvent{}
	}))
	s.RegisterInputEvent(protocol.MsgConversationNew, decodeAs(func(struct{}) core.IEvent {
		return &chat.ConversationNewEvent{}
	}))
	s.RegisterInputEvent(protocol.MsgConversationSelect, decodeAs(func(p protocol.ConversationPayload) core.IEvent {
		return &chat.ConversationSelectEvent{ID: p.ID}
	}))
	s.RegisterInputEvent(protocol.MsgConversationDelete, decodeAs(func(p protocol.ConversationPayload) core.IEvent {
		return &chat.ConversationDeleteEvent{ID: p.ID}
	}))
}

func decodeAs[P any](build func(P) core.IEvent) inputDecoder {
	return func(env protocol.Envelope) (core.IEvent, error) {
		p, err := protocol.Payload[P](env)
		if err != nil {
			return nil, err
		}
		return build(p), nil
	}
}

func (s *Service) SessionID() string {
	return s.id
}

// Init greets the client with its session id.
func (s *Service) Init(ctx context.Context) error {
	return s.send(protocol.MsgHello, protocol.HelloPayload{SessionID: s.id})
}

func (s *Service) Cleanup() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Service) Reset() error {
	return nil
}

func (s *Service) SpeechDevice() playback.SpeechDevice {
	return s.device
}

func (s *Service) SendEvent(event core.IClientEvent) error {
	return s.send(protocol.MessageType(event.GetId()), event)
}

func (s *Service) send(msgType protocol.MessageType, payload interface{}) error {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.done:
		return websocket.ErrCloseSent
	default:
	}
	if timeout := s.config.writeTimeout(); timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket: write %s: %w", msgType, err)
	}
	return nil
}

// StartReceiving reads client messages until the connection closes.
func (s *Service) StartReceiving(outputChan chan<- core.IEvent, errorChan chan<- error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			select {
			case errorChan <- err:
			case <-s.done:
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := s.decode(data)
		if err != nil {
			s.logger.Warn("dropping client message", "error", err)
			continue
		}
		if event == nil {
			continue
		}

		select {
		case outputChan <- event:
		case <-s.done:
			return
		}
	}
}

// decode returns the pipeline event for a client message, or nil when the
// message was consumed by the speech device.
func (s *Service) decode(data []byte) (core.IEvent, error) {
	env, err := protocol.Decode(data)
	if err != nil {
		return nil, err
	}
	if handled, err := s.device.handle(env); handled {
		return nil, err
	}
	decode, ok := s.registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("websocket: unknown message type %q", env.Type)
	}
	return decode(env)
}

func (s *Service) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
