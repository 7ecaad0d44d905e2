package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/events/speech"
	"voicechat/handlers/transport"
)

func TestParse(t *testing.T) {
	s := NewService("s1", strings.NewReader(""), io.Discard, nil, core.NewNopLogger())

	tests := []struct {
		line string
		want core.IEvent
		quit bool
	}{
		{line: "hello there", want: &chat.ChatUserMessageEvent{Text: "hello there", Source: chat.SourceTyped}},
		{line: "   ", want: nil},
		{line: "/new", want: &chat.ConversationNewEvent{}},
		{line: "/cancel", want: &speech.SpeechCancelEvent{}},
		{line: "/select abc", want: &chat.ConversationSelectEvent{ID: "abc"}},
		{line: "/delete  abc ", want: &chat.ConversationDeleteEvent{ID: "abc"}},
		{line: "/select", want: nil},
		{line: "/unknown", want: nil},
		{line: "/quit", want: nil, quit: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, quit := s.parse(tt.line)
			if quit != tt.quit {
				t.Fatalf("quit = %v, want %v", quit, tt.quit)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("event = %#v, want nil", got)
				}
				return
			}
			if got == nil || got.GetId() != tt.want.GetId() {
				t.Fatalf("event = %#v, want %#v", got, tt.want)
			}
			switch w := tt.want.(type) {
			case *chat.ChatUserMessageEvent:
				if g := got.(*chat.ChatUserMessageEvent); *g != *w {
					t.Errorf("event = %+v, want %+v", g, w)
				}
			case *chat.ConversationSelectEvent:
				if g := got.(*chat.ConversationSelectEvent); *g != *w {
					t.Errorf("event = %+v, want %+v", g, w)
				}
			case *chat.ConversationDeleteEvent:
				if g := got.(*chat.ConversationDeleteEvent); *g != *w {
					t.Errorf("event = %+v, want %+v", g, w)
				}
			}
		})
	}
}

func TestStartReceivingReportsEOF(t *testing.T) {
	s := NewService("s1", strings.NewReader("hi\n/new\n"), io.Discard, nil, core.NewNopLogger())
	events := make(chan core.IEvent, 4)
	errs := make(chan error, 1)

	go s.StartReceiving(events, errs)

	select {
	case err := <-errs:
		if err != io.EOF {
			t.Fatalf("err = %v, want io.EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestSendEventPrints(t *testing.T) {
	var out bytes.Buffer
	s := NewService("s1", strings.NewReader(""), &out, nil, core.NewNopLogger())

	_ = s.SendEvent(&chat.ChatResponseEvent{Text: "Hello there"})
	_ = s.SendEvent(&chat.ChatTransportFailedEvent{Message: "Network error"})
	_ = s.SendEvent(&core.NoticeEvent{Message: "Speech output is unavailable."})
	_ = s.SendEvent(&chat.ConversationListEvent{
		CurrentID:     "c1",
		Conversations: []chat.ConversationSummary{{ID: "c1", Title: "First"}},
	})
	s.printList()

	want := "assistant> Hello there\n" +
		"error> Network error\n" +
		"notice> Speech output is unavailable.\n" +
		"* c1  First\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	_ = s.Cleanup()
	if err := s.SendEvent(&chat.ChatResponseEvent{Text: "late"}); err != errClosed {
		t.Errorf("SendEvent after Cleanup = %v, want errClosed", err)
	}
}

func TestProviderRunsOneSession(t *testing.T) {
	p := NewProvider(strings.NewReader(""), io.Discard, nil, core.NewNopLogger())
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("Start without handler succeeded")
	}

	var sessions int
	if err := p.RegisterJobHandler(func(svc transport.ITransportService, ctx context.Context) error {
		sessions++
		if svc.SessionID() == "" {
			t.Error("empty session id")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sessions != 1 {
		t.Errorf("sessions = %d, want 1", sessions)
	}
}
