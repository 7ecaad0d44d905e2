package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/services/webhook"
	"voicechat/store"
)

type fakeResponder struct {
	mu      sync.Mutex
	reply   string
	err     error
	history [][]core.ChatTurn
}

func (r *fakeResponder) Respond(_ context.Context, history []core.ChatTurn, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, history)
	return r.reply, r.err
}

type harness struct {
	store *store.ConversationStore
	in    chan *core.EventPacket
	next  chan *core.EventPacket
}

func startChat(t *testing.T, responder Responder) harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conversations := store.NewConversationStore(store.NewFileStore(t.TempDir()))
	if err := conversations.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	hs := harness{
		store: conversations,
		in:    make(chan *core.EventPacket, 16),
		next:  make(chan *core.EventPacket, 64),
	}
	h := NewChatHandler(responder, conversations, DefaultConfig(), core.NewNopLogger())
	if err := h.Initialize(hs.in, hs.next, make(chan *core.EventPacket, 16), ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return hs
}

func (hs harness) send(event core.IEvent) {
	hs.in <- core.NewEventPacket(event, core.EventRelayDestinationNextService, "test")
}

// waitEvent returns the first event of type T, skipping others.
func waitEvent[T core.IEvent](t *testing.T, ch <-chan *core.EventPacket) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p := <-ch:
			if e, ok := p.Event.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestUserMessageProducesFormattedReply(t *testing.T) {
	responder := &fakeResponder{reply: `{"output":"<p>Hello <b>there</b></p>"}`}
	hs := startChat(t, responder)

	hs.send(&chat.ChatUserMessageEvent{Text: "Hi assistant", Source: chat.SourceTyped})

	resp := waitEvent[*chat.ChatResponseEvent](t, hs.next)
	if resp.Text != "Hello there" {
		t.Errorf("Text = %q, want %q", resp.Text, "Hello there")
	}

	current, ok := hs.store.Current()
	if !ok {
		t.Fatal("no current conversation")
	}
	if current.ID != resp.ConversationID {
		t.Errorf("ConversationID = %q, want %q", resp.ConversationID, current.ID)
	}
	if current.Title != "Hi assistant" {
		t.Errorf("Title = %q", current.Title)
	}
	if len(current.Messages) != 2 || current.Messages[1].Text != "Hello there" {
		t.Errorf("Messages = %+v", current.Messages)
	}
}

func TestHistoryIsPassedToResponder(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	hs := startChat(t, responder)

	hs.send(&chat.ChatUserMessageEvent{Text: "first", Source: chat.SourceTyped})
	waitEvent[*chat.ChatResponseEvent](t, hs.next)
	hs.send(&chat.ChatUserMessageEvent{Text: "second", Source: chat.SourceVoice})
	waitEvent[*chat.ChatResponseEvent](t, hs.next)

	responder.mu.Lock()
	defer responder.mu.Unlock()
	if len(responder.history) != 2 {
		t.Fatalf("responder called %d times", len(responder.history))
	}
	if len(responder.history[0]) != 0 {
		t.Errorf("first call history = %+v, want empty", responder.history[0])
	}
	got := responder.history[1]
	if len(got) != 2 || got[0].Message != "first" || got[1].Role != core.ChatMessageRoleAssistant {
		t.Errorf("second call history = %+v", got)
	}
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
	}{
		{
			name:     "client status",
			err:      &webhook.TransportError{Kind: webhook.KindClient, Status: 404},
			wantKind: "client",
		},
		{
			name:     "network",
			err:      &webhook.TransportError{Kind: webhook.KindNetwork, Err: errors.New("refused")},
			wantKind: "network",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantKind: "network",
		},
		{
			name:     "other responder error",
			err:      errors.New("boom"),
			wantKind: "server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := startChat(t, &fakeResponder{err: tt.err})
			hs.send(&chat.ChatUserMessageEvent{Text: "hello", Source: chat.SourceTyped})

			failed := waitEvent[*chat.ChatTransportFailedEvent](t, hs.next)
			if failed.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", failed.Kind, tt.wantKind)
			}
			if failed.Message == "" {
				t.Error("empty banner message")
			}
		})
	}
}

func TestConversationCommands(t *testing.T) {
	hs := startChat(t, &fakeResponder{reply: "ok"})
	waitEvent[*chat.ConversationHistoryEvent](t, hs.next)

	hs.send(&chat.ChatUserMessageEvent{Text: "first", Source: chat.SourceTyped})
	waitEvent[*chat.ChatResponseEvent](t, hs.next)
	firstID := hs.store.CurrentID()

	hs.send(&chat.ConversationNewEvent{})
	list := waitEvent[*chat.ConversationListEvent](t, hs.next)
	if len(list.Conversations) != 2 || list.CurrentID == firstID {
		t.Fatalf("after new: %+v", list)
	}
	history := waitEvent[*chat.ConversationHistoryEvent](t, hs.next)
	if len(history.Messages) != 0 {
		t.Errorf("new conversation history = %+v", history.Messages)
	}

	hs.send(&chat.ConversationSelectEvent{ID: firstID})
	waitEvent[*chat.ConversationListEvent](t, hs.next)
	history = waitEvent[*chat.ConversationHistoryEvent](t, hs.next)
	if history.ConversationID != firstID || len(history.Messages) != 2 {
		t.Errorf("selected history = %+v", history)
	}

	hs.send(&chat.ConversationDeleteEvent{ID: firstID})
	list = waitEvent[*chat.ConversationListEvent](t, hs.next)
	if len(list.Conversations) != 1 || list.CurrentID == firstID {
		t.Errorf("after delete: %+v", list)
	}

	hs.send(&chat.ConversationSelectEvent{ID: firstID})
	if notice := waitEvent[*core.NoticeEvent](t, hs.next); notice.Message == "" {
		t.Error("expected a notice for a missing conversation")
	}
}

type blockingResponder struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingResponder) Respond(ctx context.Context, _ []core.ChatTurn, _ string) (string, error) {
	close(r.started)
	select {
	case <-r.release:
		return "answer", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestReplyStaysWithAskingConversation(t *testing.T) {
	responder := &blockingResponder{started: make(chan struct{}), release: make(chan struct{})}
	hs := startChat(t, responder)

	other, err := hs.store.New()
	if err != nil {
		t.Fatal(err)
	}
	asking, err := hs.store.New()
	if err != nil {
		t.Fatal(err)
	}

	hs.send(&chat.ChatUserMessageEvent{Text: "question", Source: chat.SourceTyped})
	select {
	case <-responder.started:
	case <-time.After(2 * time.Second):
		t.Fatal("responder not called")
	}

	hs.send(&chat.ConversationSelectEvent{ID: other.ID})
	for {
		history := waitEvent[*chat.ConversationHistoryEvent](t, hs.next)
		if history.ConversationID == other.ID {
			break
		}
	}
	close(responder.release)

	resp := waitEvent[*chat.ChatResponseEvent](t, hs.next)
	if resp.ConversationID != asking.ID {
		t.Errorf("response conversation = %q, want %q", resp.ConversationID, asking.ID)
	}

	if hs.store.CurrentID() != other.ID {
		t.Errorf("current = %q, want the selected conversation", hs.store.CurrentID())
	}
	for _, c := range hs.store.List() {
		switch c.ID {
		case asking.ID:
			if len(c.Messages) != 2 || c.Messages[1].Role != store.RoleAssistant || c.Messages[1].Text != "answer" {
				t.Errorf("asking conversation messages = %+v", c.Messages)
			}
		case other.ID:
			if len(c.Messages) != 0 {
				t.Errorf("selected conversation got messages: %+v", c.Messages)
			}
		}
	}
}
