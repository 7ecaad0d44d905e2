package chat

import (
	"context"
	"errors"
	"strings"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/services/webhook"
	"voicechat/store"
	"voicechat/utils/text"
)

const responderFailedMessage = "The assistant could not answer. Please try again."

// Responder produces a raw reply for a user message.
type Responder interface {
	Respond(ctx context.Context, history []core.ChatTurn, message string) (string, error)
}

// ChatHandler sends user messages to the responder, formats the replies and
// keeps the conversation store up to date.
type ChatHandler struct {
	core.BaseHandler
	responder Responder
	formatter text.IFormatter
	store     *store.ConversationStore
	config    ChatConfig
	requests  chan *chat.ChatUserMessageEvent
}

func NewChatHandler(responder Responder, conversations *store.ConversationStore, config ChatConfig, logger *core.Logger) *ChatHandler {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	return &ChatHandler{
		BaseHandler: *core.NewBaseHandler("ChatHandler", nil, logger),
		responder:   responder,
		formatter:   text.ResponseFormatter{},
		store:       conversations,
		config:      config,
		requests:    make(chan *chat.ChatUserMessageEvent, config.QueueSize),
	}
}

func (h *ChatHandler) Start() error {
	h.emitConversationState()
	go h.replyLoop()
	go h.RunEventLoop(h.HandleEvent)
	return nil
}

func (h *ChatHandler) HandleEvent(packet *core.EventPacket) error {
	switch event := packet.Event.(type) {
	case *chat.ChatUserMessageEvent:
		if strings.TrimSpace(event.Text) != "" {
			select {
			case h.requests <- event:
			default:
				h.Logger.Warn("dropping user message, reply queue full")
				h.Emit(&core.NoticeEvent{Message: "Still working on the previous message."}, core.EventRelayDestinationNextService)
			}
		}
	case *chat.ConversationNewEvent:
		if _, err := h.store.New(); err != nil {
			h.storeFailed(err)
		}
		h.emitConversationState()
	case *chat.ConversationSelectEvent:
		if err := h.store.Select(event.ID); err != nil {
			h.storeFailed(err)
		}
		h.emitConversationState()
	case *chat.ConversationDeleteEvent:
		if err := h.store.Delete(event.ID); err != nil {
			h.storeFailed(err)
		}
		h.emitConversationState()
	}
	h.SendPacket(packet)
	return nil
}

func (h *ChatHandler) replyLoop() {
	for {
		select {
		case <-h.Ctx.Done():
			return
		case event := <-h.requests:
			h.reply(event)
		}
	}
}

func (h *ChatHandler) reply(event *chat.ChatUserMessageEvent) {
	conversation, _, err := h.store.Append(store.RoleUser, event.Text, string(event.Source))
	if err != nil {
		h.storeFailed(err)
	}
	// the reply belongs to this conversation even if another is selected meanwhile
	var history []core.ChatTurn
	if n := len(conversation.Messages); n > 0 {
		history = chatTurns(conversation.Messages[:n-1])
	}
	h.emitConversationList()
	h.Emit(&chat.ChatPendingEvent{ConversationID: conversation.ID}, core.EventRelayDestinationNextService)

	ctx, cancel := h.Ctx, context.CancelFunc(func() {})
	if timeout := h.config.responseTimeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(h.Ctx, timeout)
	}
	raw, err := h.responder.Respond(ctx, history, event.Text)
	cancel()
	if err != nil {
		if h.Ctx.Err() != nil {
			return
		}
		h.Emit(transportFailure(err), core.EventRelayDestinationNextService)
		h.Logger.Warn("responder failed", "error", err)
		return
	}

	formatted := h.formatter.Format(raw)
	_, msg, err := h.store.AppendTo(conversation.ID, store.RoleAssistant, formatted, "")
	if err != nil {
		h.storeFailed(err)
	}
	h.Emit(&chat.ChatResponseEvent{
		ConversationID: conversation.ID,
		MessageID:      msg.ID,
		Text:           formatted,
	}, core.EventRelayDestinationNextService)
}

func transportFailure(err error) *chat.ChatTransportFailedEvent {
	var te *webhook.TransportError
	if errors.As(err, &te) {
		return &chat.ChatTransportFailedEvent{Kind: string(te.Kind), Message: te.UserMessage()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		te = &webhook.TransportError{Kind: webhook.KindNetwork, Err: err}
		return &chat.ChatTransportFailedEvent{Kind: string(te.Kind), Message: te.UserMessage()}
	}
	return &chat.ChatTransportFailedEvent{Kind: string(webhook.KindServer), Message: responderFailedMessage}
}

func (h *ChatHandler) storeFailed(err error) {
	h.Logger.Warn("conversation store failed", "error", err)
	msg := "Could not save the conversation."
	if errors.Is(err, store.ErrConversationNotFound) {
		msg = "That conversation no longer exists."
	}
	h.Emit(&core.NoticeEvent{Message: msg}, core.EventRelayDestinationNextService)
}

func (h *ChatHandler) emitConversationState() {
	h.emitConversationList()

	history := &chat.ConversationHistoryEvent{ConversationID: h.store.CurrentID()}
	if current, ok := h.store.Current(); ok {
		for _, m := range current.Messages {
			history.Messages = append(history.Messages, chat.HistoryMessage{
				ID:        m.ID,
				Role:      string(m.Role),
				Text:      m.Text,
				Timestamp: m.Timestamp,
			})
		}
	}
	h.Emit(history, core.EventRelayDestinationNextService)
}

func (h *ChatHandler) emitConversationList() {
	list := &chat.ConversationListEvent{CurrentID: h.store.CurrentID()}
	for _, c := range h.store.List() {
		list.Conversations = append(list.Conversations, chat.ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
		})
	}
	h.Emit(list, core.EventRelayDestinationNextService)
}

func chatTurns(messages []store.Message) []core.ChatTurn {
	turns := make([]core.ChatTurn, 0, len(messages))
	for _, m := range messages {
		role := core.ChatMessageRoleUser
		if m.Role == store.RoleAssistant {
			role = core.ChatMessageRoleAssistant
		}
		turns = append(turns, core.ChatTurn{Role: role, Message: m.Text})
	}
	return turns
}
