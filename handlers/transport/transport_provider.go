package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrNilJobHandler is returned when registering a nil JobHandler.
var ErrNilJobHandler = errors.New("transport: job handler cannot be nil")

// JobHandler runs one client session over svc. It returns when the session
// ends or ctx is done.
type JobHandler func(svc ITransportService, ctx context.Context) error

// ITransportProvider accepts clients and hands each one to the registered
// JobHandler.
type ITransportProvider interface {
	// Start serves until ctx is done, Stop is called, or the provider's
	// only session ends.
	Start(ctx context.Context) error
	Stop() error
	RegisterJobHandler(handler JobHandler) error
}

// JobSlot stores the JobHandler of a provider. Providers embed it to satisfy
// RegisterJobHandler.
type JobSlot struct {
	mu      sync.RWMutex
	handler JobHandler
}

func (s *JobSlot) RegisterJobHandler(handler JobHandler) error {
	if handler == nil {
		return ErrNilJobHandler
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return nil
}

// Handler returns the registered JobHandler, or nil before registration.
func (s *JobSlot) Handler() JobHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}
