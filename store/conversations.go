package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	conversationsKey = "conversations"
	currentIDKey     = "currentConversationId"
	titleMaxRunes    = 40
	defaultTitle     = "New conversation"
	titleEllipsis    = "..."
)

var ErrConversationNotFound = errors.New("store: conversation not found")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationStore keeps the conversation list and the current conversation
// id in a FileStore. The list is ordered newest first.
type ConversationStore struct {
	kv  *FileStore
	now func() time.Time

	mu            sync.Mutex
	conversations []Conversation
	currentID     string
}

func NewConversationStore(kv *FileStore) *ConversationStore {
	return &ConversationStore{
		kv:  kv,
		now: time.Now,
	}
}

// Load reads the persisted state. A current id that no longer matches a
// conversation is dropped.
func (s *ConversationStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conversations []Conversation
	if _, err := s.kv.Get(conversationsKey, &conversations); err != nil {
		return err
	}
	var currentID string
	if _, err := s.kv.Get(currentIDKey, &currentID); err != nil {
		return err
	}

	s.conversations = conversations
	s.currentID = ""
	if s.indexOf(currentID) >= 0 {
		s.currentID = currentID
	}
	return nil
}

// List returns a copy of all conversations, newest first.
func (s *ConversationStore) List() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.clone()
	}
	return out
}

func (s *ConversationStore) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Current returns the selected conversation.
func (s *ConversationStore) Current() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(s.currentID)
	if i < 0 {
		return Conversation{}, false
	}
	return s.conversations[i].clone(), true
}

// New creates an empty conversation and selects it.
func (s *ConversationStore) New() (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.newLocked()
	return c.clone(), s.persistLocked()
}

func (s *ConversationStore) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.currentID = id
	return s.kv.Set(currentIDKey, s.currentID)
}

// Delete removes a conversation. Deleting the current one selects the newest
// remaining conversation.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	if s.currentID == id {
		s.currentID = ""
		if len(s.conversations) > 0 {
			s.currentID = s.conversations[0].ID
		}
	}
	return s.persistLocked()
}

// Append adds a message to the current conversation, creating one if none is
// selected. The first user message names the conversation.
func (s *ConversationStore) Append(role Role, text, source string) (Conversation, Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.currentID)
	if i < 0 {
		s.newLocked()
		i = 0
	}
	return s.appendLocked(i, role, text, source)
}

// AppendTo adds a message to the conversation id whether or not it is
// current. It returns ErrConversationNotFound if id was deleted.
func (s *ConversationStore) AppendTo(id string, role Role, text, source string) (Conversation, Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Conversation{}, Message{}, ErrConversationNotFound
	}
	return s.appendLocked(i, role, text, source)
}

func (s *ConversationStore) appendLocked(i int, role Role, text, source string) (Conversation, Message, error) {
	now := s.now()
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Source:    source,
		Timestamp: now,
	}
	c := &s.conversations[i]
	if role == RoleUser && !c.hasUserMessage() {
		c.Title = Title(text)
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = now

	return c.clone(), msg, s.persistLocked()
}

// Title derives a conversation title from its first user message.
func Title(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return defaultTitle
	}
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}

func (s *ConversationStore) newLocked() Conversation {
	now := s.now()
	c := Conversation{
		ID:        uuid.NewString(),
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations = append([]Conversation{c}, s.conversations...)
	s.currentID = c.ID
	return c
}

func (s *ConversationStore) persistLocked() error {
	if err := s.kv.Set(conversationsKey, s.conversations); err != nil {
		return err
	}
	if s.currentID == "" {
		return s.kv.Delete(currentIDKey)
	}
	return s.kv.Set(currentIDKey, s.currentID)
}

func (s *ConversationStore) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (c Conversation) hasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

func (c Conversation) clone() Conversation {
	c.Messages = append([]Message(nil), c.Messages...)
	return c
}
