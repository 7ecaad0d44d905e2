package console

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"voicechat/core"
	"voicechat/handlers/playback"
	"voicechat/handlers/transport"
)

// Provider runs a single session over a line-oriented reader and writer,
// typically stdin and stdout.
type Provider struct {
	in     io.Reader
	out    io.Writer
	device playback.SpeechDevice
	logger *core.Logger

	transport.JobSlot

	mu     sync.Mutex
	active *Service
}

// NewProvider returns a console provider. device may be nil, in which case
// replies are only printed.
func NewProvider(in io.Reader, out io.Writer, device playback.SpeechDevice, logger *core.Logger) *Provider {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Provider{
		in:     in,
		out:    out,
		device: device,
		logger: logger.With(map[string]interface{}{"component": "console"}),
	}
}

// Start runs one session and returns when it ends.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		return errors.New("console: provider already running")
	}
	handler := p.Handler()
	if handler == nil {
		p.mu.Unlock()
		return errors.New("console: no job handler registered")
	}
	svc := NewService(uuid.NewString(), p.in, p.out, p.device, p.logger)
	p.active = svc
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active = nil
		p.mu.Unlock()
		_ = svc.Cleanup()
	}()

	return handler(svc, ctx)
}

func (p *Provider) Stop() error {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active != nil {
		return active.Cleanup()
	}
	return nil
}
