package core

import (
	"context"
	"errors"
	"sync"
)

const packetBufferSize = 100

// Runner wires handlers into a chain and routes packets between them.
//
//	input[0] -> h0 -> input[1] -> h1 -> ... -> hN -> last output (dropped)
//
// Packets sent to the top channel are re-injected at the head so every
// handler observes them.
type Runner struct {
	Handlers []IHandler
	Finished chan struct{}

	logger         *Logger
	ctx            context.Context
	cancel         context.CancelFunc
	inputChans     []chan *EventPacket
	topOutputChan  chan *EventPacket
	lastOutputChan chan *EventPacket
	finishOnce     sync.Once
}

func NewRunner(handlers []IHandler, logger *Logger) *Runner {
	if logger == nil {
		logger = GetLogger()
	}
	return &Runner{
		Handlers: handlers,
		Finished: make(chan struct{}),
		logger:   logger.With(map[string]interface{}{"component": "runner"}),
	}
}

// Start initializes and starts every handler under a child of ctx.
func (r *Runner) Start(ctx context.Context) error {
	if len(r.Handlers) == 0 {
		return errors.New("runner: no handlers")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.topOutputChan = make(chan *EventPacket, packetBufferSize)
	r.lastOutputChan = make(chan *EventPacket, packetBufferSize)

	r.inputChans = make([]chan *EventPacket, len(r.Handlers))
	for i := range r.inputChans {
		r.inputChans[i] = make(chan *EventPacket, packetBufferSize)
	}

	for i, handler := range r.Handlers {
		var outputNextChan chan<- *EventPacket
		if i < len(r.Handlers)-1 {
			outputNextChan = r.inputChans[i+1]
		} else {
			outputNextChan = r.lastOutputChan
		}

		if err := handler.Initialize(r.inputChans[i], outputNextChan, r.topOutputChan, r.ctx); err != nil {
			r.cancel()
			return err
		}
	}

	for _, handler := range r.Handlers {
		if err := handler.Start(); err != nil {
			r.cancel()
			return err
		}
	}

	go r.listenToOutputs()

	return nil
}

func (r *Runner) listenToOutputs() {
	for {
		select {
		case packet := <-r.lastOutputChan:
			r.logger.Debug("pipeline drained event", "event", packet.Event.GetId(), "relayer", packet.Relayer)
		case packet := <-r.topOutputChan:
			r.processTopOutput(packet)
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Runner) processTopOutput(packet *EventPacket) {
	switch event := packet.Event.(type) {
	case *CriticalErrorEvent:
		r.logger.Error("critical error in pipeline", "error", event.Error, "relayer", packet.Relayer)
	case *SessionEndedEvent:
		r.logger.Info("session ended", "reason", event.Reason)
		r.finishOnce.Do(func() { close(r.Finished) })
		return
	}

	select {
	case r.inputChans[0] <- packet:
	case <-r.ctx.Done():
	}
}

func (r *Runner) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}

	var errs []error
	for _, handler := range r.Handlers {
		if err := handler.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) Reset() error {
	var errs []error
	for _, handler := range r.Handlers {
		if err := handler.Reset(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
