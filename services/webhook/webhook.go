package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/net/proxy"

	"voicechat/core"
)

type request struct {
	Message string `json:"message"`
}

// Client posts user messages to the webhook and returns the raw reply body.
type Client struct {
	config WebhookConfig
	http   *http.Client
	logger *core.Logger
}

func NewClient(config WebhookConfig, logger *core.Logger) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("webhook: url is required")
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(DefaultConfig().TimeoutSec) * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if config.SocksProxy != "" {
		transport, err := socksTransport(config.SocksProxy)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = transport
	}

	return &Client{
		config: config,
		http:   httpClient,
		logger: logger.With(map[string]interface{}{"component": "webhook"}),
	}, nil
}

func socksTransport(addr string) (*http.Transport, error) {
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("webhook: socks proxy %q: %w", addr, err)
	}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}, nil
}

// Send posts message and returns the reply body unchanged. Failures are
// reported as *TransportError.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	body, err := sonic.Marshal(request{Message: message})
	if err != nil {
		return "", fmt.Errorf("webhook: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("webhook returned error status", "status", resp.StatusCode)
		return "", statusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: err}
	}

	c.logger.Debug("webhook replied", "status", resp.StatusCode, "bytes", len(raw), "elapsed", time.Since(start).String())
	return string(raw), nil
}

// Respond implements the chat responder. The webhook is stateless, so history
// is not sent.
func (c *Client) Respond(ctx context.Context, _ []core.ChatTurn, message string) (string, error) {
	return c.Send(ctx, message)
}
