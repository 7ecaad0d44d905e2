package core

import (
	"context"
)

type IService interface {
	Init(ctx context.Context) error
	Cleanup() error
	Reset() error
}

type IHandler interface {
	Initialize(
		inputChan <-chan *EventPacket,
		outputNextChan chan<- *EventPacket,
		outputTopChan chan<- *EventPacket,
		ctx context.Context,
	) error // Wires the handler into the pipeline and initializes its service.
	Start() error // Starts the handler's loops. Must not block.
	HandleEvent(packet *EventPacket) error

	Cleanup() error // Cleans up resources used by the handler.
	Reset() error   // Resets the handler to its initial state.
}

type BaseHandler struct {
	Service               IService
	Logger                *Logger
	Ctx                   context.Context
	InputChan             <-chan *EventPacket
	outputNextChan        chan<- *EventPacket
	outputTopChan         chan<- *EventPacket
	FatalServiceErrorChan chan error
	name                  string
}

// NewBaseHandler returns a BaseHandler for service. service may be nil for
// handlers that only route events.
func NewBaseHandler(name string, service IService, logger *Logger) *BaseHandler {
	if logger == nil {
		logger = GetLogger()
	}
	return &BaseHandler{
		Service: service,
		Logger:  logger.With(map[string]interface{}{"handler": name}),
		name:    name,
	}
}

func (h *BaseHandler) Initialize(
	inputChan <-chan *EventPacket,
	outputNextChan chan<- *EventPacket,
	outputTopChan chan<- *EventPacket,
	ctx context.Context,
) error {
	h.InputChan = inputChan
	h.outputNextChan = outputNextChan
	h.outputTopChan = outputTopChan
	h.FatalServiceErrorChan = make(chan error, 1)
	h.Ctx = ctx
	go h.fatalErrorHandlerLoop()
	if h.Service == nil {
		return nil
	}
	return h.Service.Init(ctx)
}

func (h *BaseHandler) Cleanup() error {
	if h.Service == nil {
		return nil
	}
	return h.Service.Cleanup()
}

func (h *BaseHandler) Reset() error {
	if h.Service == nil {
		return nil
	}
	return h.Service.Reset()
}

// Name is the relayer name stamped on packets created by this handler.
func (h *BaseHandler) Name() string {
	return h.name
}

func (h *BaseHandler) SendPacket(packet *EventPacket) {
	out := h.outputNextChan
	if packet.Destination == EventRelayDestinationTopService {
		out = h.outputTopChan
	}
	select {
	case out <- packet:
	case <-h.Ctx.Done():
	}
}

// Emit wraps event in a packet from this handler and sends it.
func (h *BaseHandler) Emit(event IEvent, destination EventRelayDestination) {
	h.SendPacket(NewEventPacket(event, destination, h.name))
}

// RunEventLoop feeds every input packet to handle until the context ends.
func (h *BaseHandler) RunEventLoop(handle func(*EventPacket) error) {
	for {
		select {
		case <-h.Ctx.Done():
			return
		case packet := <-h.InputChan:
			if err := handle(packet); err != nil {
				h.Logger.Warn("event handling failed", "event", packet.Event.GetId(), "error", err)
			}
		}
	}
}

func (h *BaseHandler) HandleError(err error) {
	select {
	case h.FatalServiceErrorChan <- err:
	case <-h.Ctx.Done():
	}
}

func (h *BaseHandler) fatalErrorHandlerLoop() {
	for {
		select {
		case err := <-h.FatalServiceErrorChan:
			h.Logger.Error("service failure", "error", err)
			h.Emit(&CriticalErrorEvent{Error: err.Error()}, EventRelayDestinationTopService)
		case <-h.Ctx.Done():
			return
		}
	}
}
