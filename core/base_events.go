package core

// CriticalErrorEvent is raised when a handler's service fails in a way the
// session cannot recover from.
type CriticalErrorEvent struct {
	Error string `json:"error"`
}

func (e *CriticalErrorEvent) GetId() string {
	return "shared.critical_error"
}

func (e *CriticalErrorEvent) ClientEvent() {}

// NoticeEvent carries a non-fatal message for the user, e.g. speech output
// being unavailable.
type NoticeEvent struct {
	Message string `json:"message"`
}

func (e *NoticeEvent) GetId() string {
	return "shared.notice"
}

func (e *NoticeEvent) ClientEvent() {}

// SessionEndedEvent is fired when the client goes away. The runner handles it
// by closing Finished.
type SessionEndedEvent struct {
	Reason string
}

func (e *SessionEndedEvent) GetId() string {
	return "shared.session_ended"
}
