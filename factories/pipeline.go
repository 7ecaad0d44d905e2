package factories

import (
	"context"
	"time"

	"voicechat/core"
	"voicechat/handlers/transport"
)

// PipelineConfig configures a Pipeline's lifecycle behaviour.
type PipelineConfig struct {
	// Timeout bounds one session. Zero means no limit.
	Timeout time.Duration
	// LogDir, when set, receives a structured log per session.
	LogDir string
}

// HandlerBuilder creates the ordered handler slice for a single session.
type HandlerBuilder func(svc transport.ITransportService, ctx context.Context) ([]core.IHandler, error)

// Pipeline builds and runs handler pipelines for incoming transport sessions.
type Pipeline struct {
	config  PipelineConfig
	builder HandlerBuilder
	logger  *core.Logger
}

func NewPipeline(builder HandlerBuilder, config PipelineConfig, logger *core.Logger) *Pipeline {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Pipeline{
		builder: builder,
		config:  config,
		logger:  logger,
	}
}

// Run builds a handler pipeline for a single session and blocks until the
// client goes away, the timeout fires, or ctx is done.
func (p *Pipeline) Run(svc transport.ITransportService, ctx context.Context) error {
	if svc == nil {
		p.logger.Warn("nil transport service, skipping session")
		return nil
	}

	base, closeLog := p.sessionLogger(svc.SessionID())
	defer closeLog()
	ctx = core.ContextWithSessionLogger(ctx, base)
	logger := base.With(map[string]any{"component": "pipeline"})

	select {
	case <-ctx.Done():
		logger.Info("context already cancelled, skipping session")
		return nil
	default:
	}

	handlers, err := p.builder(svc, ctx)
	if err != nil {
		logger.Error("failed to build handlers", "error", err)
		return err
	}

	runner := core.NewRunner(handlers, base)
	if err := runner.Start(ctx); err != nil {
		logger.Error("runner failed to start", "error", err)
		return err
	}
	logger.Info("session started")

	var timerC <-chan time.Time
	if p.config.Timeout > 0 {
		timer := time.NewTimer(p.config.Timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	var result error
	select {
	case <-ctx.Done():
		logger.Info("context cancelled, stopping runner")
	case <-timerC:
		logger.Warn("timeout reached, stopping runner")
		result = context.DeadlineExceeded
	case <-runner.Finished:
		logger.Info("session finished")
	}
	if err := runner.Stop(); err != nil {
		logger.Warn("runner stop failed", "error", err)
	}
	return result
}

// sessionLogger returns a logger that also writes to the per-session log
// when LogDir is configured.
func (p *Pipeline) sessionLogger(sessionID string) (*core.Logger, func()) {
	logger := p.logger.With(map[string]any{"session": sessionID})
	if p.config.LogDir == "" {
		return logger, func() {}
	}
	writer, err := core.NewSessionLogWriter(p.config.LogDir, sessionID, "voicechat")
	if err != nil {
		p.logger.Warn("session log unavailable", "error", err)
		return logger, func() {}
	}
	return core.NewSessionLogger(logger, writer).With(map[string]any{"session": sessionID}), writer.Close
}

// Serve registers the session handler with provider and runs it until ctx
// is done or the provider returns.
func (p *Pipeline) Serve(provider transport.ITransportProvider, ctx context.Context) error {
	logger := p.logger.With(map[string]any{"component": "pipeline"})

	if err := provider.RegisterJobHandler(p.Run); err != nil {
		logger.Error("failed to register job handler", "error", err)
		return err
	}

	logger.Info("provider starting")
	err := provider.Start(ctx)
	if stopErr := provider.Stop(); stopErr != nil {
		logger.Warn("error stopping provider", "error", stopErr)
	}
	return err
}
