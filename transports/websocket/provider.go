package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voicechat/core"
	"voicechat/handlers/transport"
)

// Provider accepts browser clients over WebSocket. Only one client is active
// at a time; a new connection replaces the previous one.
type Provider struct {
	config   Config
	logger   *core.Logger
	upgrader websocket.Upgrader

	transport.JobSlot

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	ctx      context.Context
	active   *Service
	jobs     sync.WaitGroup
}

func NewProvider(config Config, logger *core.Logger) *Provider {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Provider{
		config: config,
		logger: logger.With(map[string]interface{}{"component": "websocket"}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Start listens on the configured address and serves until ctx is done or
// Stop is called.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.server != nil {
		p.mu.Unlock()
		return errors.New("websocket: provider already running")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(p.config.Path, p.handleWebSocket)
	if p.config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(p.config.StaticDir)))
	}

	ln, err := net.Listen("tcp", p.config.Listen)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("websocket: listen %s: %w", p.config.Listen, err)
	}
	p.ctx = ctx
	p.listener = ln
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := p.server
	p.mu.Unlock()

	p.logger.Info("websocket bridge listening", "addr", ln.Addr().String(), "path", p.config.Path)

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket: serve: %w", err)
	}
	return nil
}

// Addr returns the listening address once Start has been called.
func (p *Provider) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop closes the active client and shuts the server down.
func (p *Provider) Stop() error {
	p.mu.Lock()
	server, active := p.server, p.active
	p.active = nil
	p.mu.Unlock()

	if active != nil {
		_ = active.Cleanup()
	}
	if server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("websocket: shutdown: %w", err)
	}
	p.jobs.Wait()
	return nil
}

func (p *Provider) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(p.config.MaxMessageSize)

	svc := NewService(uuid.NewString(), conn, p.config, p.logger)

	p.mu.Lock()
	previous := p.active
	p.active = svc
	handler := p.Handler()
	p.jobs.Add(1)
	p.mu.Unlock()
	defer p.jobs.Done()

	if previous != nil {
		p.logger.Info("replacing active client", "previous", previous.SessionID(), "session", svc.SessionID())
		_ = previous.Cleanup()
	}

	defer func() {
		p.mu.Lock()
		if p.active == svc {
			p.active = nil
		}
		p.mu.Unlock()
		_ = svc.Cleanup()
	}()

	if handler == nil {
		p.logger.Warn("no job handler registered, closing client")
		return
	}

	if err := handler(svc, r.Context()); err != nil {
		p.logger.Warn("session ended with error", "session", svc.SessionID(), "error", err)
	}
}
