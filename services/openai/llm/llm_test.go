package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voicechat/core"
)

const completionResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there."}, "finish_reason": "stop"}]
}`

func TestRespondSendsHistory(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	r, err := NewOpenAIResponder(cfg, core.NewNopLogger())
	if err != nil {
		t.Fatalf("NewOpenAIResponder: %v", err)
	}

	history := []core.ChatTurn{
		{Role: core.ChatMessageRoleUser, Message: "earlier question"},
		{Role: core.ChatMessageRoleAssistant, Message: "earlier answer"},
	}
	reply, err := r.Respond(context.Background(), history, "new question")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Hello there." {
		t.Errorf("reply = %q", reply)
	}
	for _, want := range []string{"earlier question", "earlier answer", "new question", cfg.SystemPrompt} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %q", want)
		}
	}
}

func TestRespondPropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	r, err := NewOpenAIResponder(cfg, core.NewNopLogger())
	if err != nil {
		t.Fatalf("NewOpenAIResponder: %v", err)
	}
	if _, err := r.Respond(context.Background(), nil, "hi"); err == nil {
		t.Error("expected error")
	}
}

func TestNewOpenAIResponderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIResponder(DefaultConfig(), core.NewNopLogger()); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestChatContextLast(t *testing.T) {
	var c core.ChatContext
	c.AddUserMessage("a")
	c.AddAssistantMessage("b")
	c.AddUserMessage("c")

	if got := c.Last(2); len(got) != 2 || got[0].Message != "b" {
		t.Errorf("Last(2) = %+v", got)
	}
	if got := c.Last(0); len(got) != 3 {
		t.Errorf("Last(0) = %+v", got)
	}
}
