package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"voicechat/core"
	"voicechat/events/chat"
	"voicechat/events/speech"
	"voicechat/handlers/playback"
)

var errClosed = errors.New("console: service closed")

const helpText = "Commands: /new, /list, /select <id>, /delete <id>, /cancel, /quit"

// Service reads user turns and slash commands line by line and prints the
// client events it is sent.
type Service struct {
	id     string
	in     io.Reader
	out    io.Writer
	device playback.SpeechDevice
	logger *core.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	// last conversation list, for /list
	listMu sync.Mutex
	list   *chat.ConversationListEvent
}

func NewService(id string, in io.Reader, out io.Writer, device playback.SpeechDevice, logger *core.Logger) *Service {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Service{
		id:     id,
		in:     in,
		out:    out,
		device: device,
		logger: logger.With(map[string]interface{}{"session": id}),
		done:   make(chan struct{}),
	}
}

func (s *Service) SessionID() string {
	return s.id
}

func (s *Service) Init(ctx context.Context) error {
	return s.printf("%s\n", helpText)
}

func (s *Service) Cleanup() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *Service) Reset() error {
	return nil
}

func (s *Service) SpeechDevice() playback.SpeechDevice {
	return s.device
}

// StartReceiving reads lines until the input ends or /quit is entered.
func (s *Service) StartReceiving(outputChan chan<- core.IEvent, errorChan chan<- error) {
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		event, quit := s.parse(scanner.Text())
		if quit {
			break
		}
		if event == nil {
			continue
		}
		select {
		case outputChan <- event:
		case <-s.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case errorChan <- err:
	case <-s.done:
	}
}

// parse turns one input line into an event. It reports quit for /quit.
func (s *Service) parse(line string) (core.IEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	if !strings.HasPrefix(line, "/") {
		return &chat.ChatUserMessageEvent{Text: line, Source: chat.SourceTyped}, false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "exit":
		return nil, true
	case "new":
		return &chat.ConversationNewEvent{}, false
	case "cancel", "stop":
		return &speech.SpeechCancelEvent{}, false
	case "select":
		if arg == "" {
			_ = s.printf("usage: /select <id>\n")
			return nil, false
		}
		return &chat.ConversationSelectEvent{ID: arg}, false
	case "delete":
		if arg == "" {
			_ = s.printf("usage: /delete <id>\n")
			return nil, false
		}
		return &chat.ConversationDeleteEvent{ID: arg}, false
	case "list":
		s.printList()
		return nil, false
	default:
		_ = s.printf("%s\n", helpText)
		return nil, false
	}
}

func (s *Service) SendEvent(event core.IClientEvent) error {
	switch e := event.(type) {
	case *chat.ChatPendingEvent:
		return s.printf("... thinking\n")
	case *chat.ChatResponseEvent:
		return s.printf("assistant> %s\n", e.Text)
	case *chat.ChatTransportFailedEvent:
		return s.printf("error> %s\n", e.Message)
	case *chat.ConversationListEvent:
		s.listMu.Lock()
		s.list = e
		s.listMu.Unlock()
	case *chat.ConversationHistoryEvent:
		for _, m := range e.Messages {
			if err := s.printf("%s> %s\n", m.Role, m.Text); err != nil {
				return err
			}
		}
	case *core.NoticeEvent:
		return s.printf("notice> %s\n", e.Message)
	case *core.CriticalErrorEvent:
		return s.printf("error> %s\n", e.Error)
	case *speech.SpeechStartedEvent, *speech.SpeechEndedEvent, *speech.CaptureConfigEvent:
		// playback state is audible; nothing to print
	default:
		s.logger.Debug("unhandled client event", "event", event.GetId())
	}
	return nil
}

func (s *Service) printList() {
	s.listMu.Lock()
	list := s.list
	s.listMu.Unlock()

	if list == nil || len(list.Conversations) == 0 {
		_ = s.printf("no conversations\n")
		return
	}
	for _, c := range list.Conversations {
		marker := " "
		if c.ID == list.CurrentID {
			marker = "*"
		}
		_ = s.printf("%s %s  %s\n", marker, c.ID, c.Title)
	}
}

func (s *Service) printf(format string, args ...interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.done:
		return errClosed
	default:
	}
	_, err := fmt.Fprintf(s.out, format, args...)
	return err
}
