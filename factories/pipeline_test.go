package factories

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"voicechat/core"
	"voicechat/store"
	"voicechat/transports/console"
)

type stubResponder struct {
	reply string
}

func (r stubResponder) Respond(ctx context.Context, history []core.ChatTurn, message string) (string, error) {
	return r.reply, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPipelineRunsConsoleSession(t *testing.T) {
	settings := DefaultSettingsConfig()
	settings.Mode = ModeConsole
	settings.DataDir = t.TempDir()

	conversations := store.NewConversationStore(store.NewFileStore(settings.DataDir))
	session := &Session{
		Settings:      settings,
		Responder:     stubResponder{reply: `{"output":"<p>Hello <b>there</b></p>"}`},
		Conversations: conversations,
	}

	in, inWriter := io.Pipe()
	out := &syncBuffer{}
	logger := core.NewNopLogger()
	provider := console.NewProvider(in, out, nil, logger)
	pipeline := NewPipeline(session.BuildHandlers, PipelineConfig{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- pipeline.Serve(provider, ctx) }()

	if _, err := io.WriteString(inWriter, "hi\n"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "assistant> Hello there") {
		if time.Now().After(deadline) {
			t.Fatalf("no reply in output: %q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = inWriter.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("session did not end after input closed")
	}

	current, ok := conversations.Current()
	if !ok || len(current.Messages) != 2 {
		t.Fatalf("stored conversation = %+v", current)
	}
	if current.Messages[1].Text != "Hello there" {
		t.Errorf("stored reply = %q", current.Messages[1].Text)
	}
}
