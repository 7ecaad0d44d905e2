package transport

import (
	"errors"
	"io"

	"voicechat/core"
	"voicechat/events/speech"
)

// TransportHandlerWrapper builds the input and output ends of the pipeline
// for one client connection.
type TransportHandlerWrapper struct {
	service ITransportService
	config  TransportConfig
	logger  *core.Logger
}

func NewTransportHandlerWrapper(service ITransportService, config TransportConfig, logger *core.Logger) *TransportHandlerWrapper {
	return &TransportHandlerWrapper{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// GetInputHandler owns the service lifecycle.
func (w *TransportHandlerWrapper) GetInputHandler() *TransportInputHandler {
	return &TransportInputHandler{
		BaseHandler: *core.NewBaseHandler("TransportInputHandler", w.service, w.logger),
		service:     w.service,
		config:      w.config,
	}
}

func (w *TransportHandlerWrapper) GetOutputHandler() *TransportOutputHandler {
	return &TransportOutputHandler{
		BaseHandler: *core.NewBaseHandler("TransportOutputHandler", nil, w.logger),
		service:     w.service,
	}
}

// TransportInputHandler turns client messages into pipeline events.
type TransportInputHandler struct {
	core.BaseHandler
	service ITransportService
	config  TransportConfig
}

func (h *TransportInputHandler) Start() error {
	h.Emit(&speech.CaptureConfigEvent{
		Lang:           h.config.CaptureLanguage,
		Continuous:     false,
		InterimResults: false,
	}, core.EventRelayDestinationNextService)

	go h.receiveLoop()
	go h.RunEventLoop(h.HandleEvent)
	return nil
}

func (h *TransportInputHandler) receiveLoop() {
	outputChan := make(chan core.IEvent)
	errorChan := make(chan error, 1)

	go h.service.StartReceiving(outputChan, errorChan)

	for {
		select {
		case event := <-outputChan:
			h.Emit(event, core.EventRelayDestinationNextService)
		case err := <-errorChan:
			reason := "client disconnected"
			if !errors.Is(err, io.EOF) {
				h.HandleError(err)
				reason = err.Error()
			}
			h.Emit(&core.SessionEndedEvent{Reason: reason}, core.EventRelayDestinationTopService)
			return
		case <-h.Ctx.Done():
			return
		}
	}
}

func (h *TransportInputHandler) HandleEvent(packet *core.EventPacket) error {
	h.SendPacket(packet)
	return nil
}

// TransportOutputHandler delivers client-bound events.
type TransportOutputHandler struct {
	core.BaseHandler
	service ITransportService
}

func (h *TransportOutputHandler) Start() error {
	go h.RunEventLoop(h.HandleEvent)
	return nil
}

func (h *TransportOutputHandler) HandleEvent(packet *core.EventPacket) error {
	if event, ok := packet.Event.(core.IClientEvent); ok {
		if err := h.service.SendEvent(event); err != nil {
			h.Logger.Warn("failed to deliver event", "event", event.GetId(), "error", err)
		}
	}
	h.SendPacket(packet)
	return nil
}
