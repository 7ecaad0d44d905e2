package chat

import "time"

// MessageSource records how a user message was entered.
type MessageSource string

const (
	SourceTyped MessageSource = "typed"
	SourceVoice MessageSource = "voice"
)

// ChatUserMessageEvent carries one user turn, typed or transcribed.
type ChatUserMessageEvent struct {
	Text   string        `json:"text"`
	Source MessageSource `json:"source"`
}

func (e *ChatUserMessageEvent) GetId() string {
	return "chat.user_message"
}

// ChatPendingEvent tells the client a reply is being fetched.
type ChatPendingEvent struct {
	ConversationID string `json:"conversationId"`
}

func (e *ChatPendingEvent) GetId() string {
	return "chat.pending"
}

func (e *ChatPendingEvent) ClientEvent() {}

// ChatResponseEvent carries a formatted assistant reply.
type ChatResponseEvent struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Text           string `json:"text"`
}

func (e *ChatResponseEvent) GetId() string {
	return "chat.response"
}

func (e *ChatResponseEvent) ClientEvent() {}

// ChatTransportFailedEvent is shown to the user as a dismissible banner.
type ChatTransportFailedEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *ChatTransportFailedEvent) GetId() string {
	return "chat.transport_failed"
}

func (e *ChatTransportFailedEvent) ClientEvent() {}

type ConversationNewEvent struct{}

func (e *ConversationNewEvent) GetId() string {
	return "conversation.new"
}

type ConversationSelectEvent struct {
	ID string `json:"id"`
}

func (e *ConversationSelectEvent) GetId() string {
	return "conversation.select"
}

type ConversationDeleteEvent struct {
	ID string `json:"id"`
}

func (e *ConversationDeleteEvent) GetId() string {
	return "conversation.delete"
}

type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationListEvent is sent whenever the conversation list changes.
type ConversationListEvent struct {
	CurrentID     string                `json:"currentId"`
	Conversations []ConversationSummary `json:"conversations"`
}

func (e *ConversationListEvent) GetId() string {
	return "conversation.list"
}

func (e *ConversationListEvent) ClientEvent() {}

type HistoryMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationHistoryEvent replays the messages of the current conversation.
type ConversationHistoryEvent struct {
	ConversationID string           `json:"conversationId"`
	Messages       []HistoryMessage `json:"messages"`
}

func (e *ConversationHistoryEvent) GetId() string {
	return "conversation.history"
}

func (e *ConversationHistoryEvent) ClientEvent() {}
