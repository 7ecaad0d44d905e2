package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"voicechat/core"
)

func TestSendPostsMessage(t *testing.T) {
	var gotBody request
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotHeader = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{"output":"hi"}`))
	}))
	defer srv.Close()

	c, err := NewClient(WebhookConfig{URL: srv.URL, Headers: map[string]string{"X-Api-Key": "secret"}}, core.NewNopLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := c.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if raw != `{"output":"hi"}` {
		t.Errorf("raw = %q", raw)
	}
	if gotBody.Message != "hello" {
		t.Errorf("message = %q, want hello", gotBody.Message)
	}
	if gotHeader != "secret" {
		t.Errorf("header = %q, want secret", gotHeader)
	}
}

func TestSendStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{name: "bad request", status: http.StatusBadRequest, kind: KindClient},
		{name: "not found", status: http.StatusNotFound, kind: KindClient},
		{name: "server error", status: http.StatusInternalServerError, kind: KindServer},
		{name: "bad gateway", status: http.StatusBadGateway, kind: KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, err := NewClient(WebhookConfig{URL: srv.URL}, core.NewNopLogger())
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = c.Send(context.Background(), "hello")

			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *TransportError", err)
			}
			if te.Kind != tt.kind || te.Status != tt.status {
				t.Errorf("got kind=%s status=%d, want kind=%s status=%d", te.Kind, te.Status, tt.kind, tt.status)
			}
			if te.UserMessage() == "" {
				t.Error("empty user message")
			}
		})
	}
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(WebhookConfig{URL: url}, core.NewNopLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Send(context.Background(), "hello")

	var te *TransportError
	if !errors.As(err, &te) || te.Kind != KindNetwork {
		t.Fatalf("err = %v, want network TransportError", err)
	}
	if te.Unwrap() == nil {
		t.Error("network error should wrap the cause")
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(WebhookConfig{}, core.NewNopLogger()); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestNewClientWithSocksProxy(t *testing.T) {
	c, err := NewClient(WebhookConfig{URL: "http://example.invalid", SocksProxy: "127.0.0.1:1080"}, core.NewNopLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := c.http.Transport.(*http.Transport); !ok {
		t.Errorf("transport = %T, want *http.Transport", c.http.Transport)
	}
}
