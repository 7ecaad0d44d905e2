package core

type IEvent interface {
	GetId() string // Returns the unique identifier of the event.
}

// IClientEvent is implemented by events that the transport output handler
// forwards to the connected client. The event id doubles as the wire type.
type IClientEvent interface {
	IEvent
	ClientEvent()
}
