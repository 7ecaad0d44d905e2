package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"voicechat/core"
	"voicechat/utils/text"
)

type State int32

const (
	StateIdle State = iota
	StateCancelling
	StateSpeaking
	StateFinished // reported, then Idle
	StateErrored  // reported, then Idle
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCancelling:
		return "cancelling"
	case StateSpeaking:
		return "speaking"
	case StateFinished:
		return "finished"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

var (
	ErrBlankText    = errors.New("playback: blank text")
	ErrNoDevice     = errors.New("playback: no speech device")
	ErrNoVoice      = errors.New("playback: no voice available")
	ErrStopped      = errors.New("playback: controller stopped")
	ErrUnknownVoice = errors.New("playback: unknown voice")
)

// Controller plays text through a SpeechDevice one sentence at a time.
//
// All playback state is owned by the goroutine started by Start. Public
// methods, timers and device events are funnelled into that goroutine.
// Every playback session has an id; callbacks and device events that carry
// an id other than the current one are dropped.
type Controller struct {
	device SpeechDevice
	config PlaybackConfig
	logger *core.Logger

	cmdChan chan func()
	stopped chan struct{}

	// owned by the run loop
	session    uint64
	cancelling bool
	queue      []Utterance
	cursor     int
	voice      *Voice
	observers  []func(State)

	speaking atomic.Bool
	state    atomic.Int32
}

func NewController(device SpeechDevice, config PlaybackConfig, logger *core.Logger) *Controller {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Controller{
		device:  device,
		config:  config,
		logger:  logger.With(map[string]interface{}{"component": "playback"}),
		cmdChan: make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Start runs the controller until ctx is done. Other methods block until
// Start has been called.
func (c *Controller) Start(ctx context.Context) {
	go c.run(ctx)
}

// OnStateChange registers fn to be called on every state transition. fn runs
// on the controller goroutine and must not call back into the controller.
func (c *Controller) OnStateChange(fn func(State)) {
	c.do(func() {
		c.observers = append(c.observers, fn)
	})
}

// Speak replaces whatever is playing with content. The new session starts
// after the settle delay.
func (c *Controller) Speak(content string) error {
	err := ErrStopped
	c.do(func() {
		err = c.speak(content)
	})
	return err
}

// Cancel stops playback. It does nothing when the controller is idle.
func (c *Controller) Cancel() {
	c.do(c.cancel)
}

func (c *Controller) IsSpeaking() bool {
	return c.speaking.Load()
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) QueueLen() int {
	n := 0
	c.do(func() {
		n = len(c.queue) - c.cursor
	})
	return n
}

// Voice returns the selected voice, if any.
func (c *Controller) Voice() (Voice, bool) {
	var (
		v  Voice
		ok bool
	)
	c.do(func() {
		if c.voice != nil {
			v, ok = *c.voice, true
		}
	})
	return v, ok
}

// SetVoice pins the device voice called name. It applies from the next
// session; later voice list changes keep it while the device still offers it.
func (c *Controller) SetVoice(name string) error {
	err := ErrStopped
	c.do(func() {
		err = c.setVoice(name)
	})
	return err
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.stopped)

	var events <-chan DeviceEvent
	if c.device != nil {
		events = c.device.Events()
		c.refreshVoices()
	}

	for {
		select {
		case <-ctx.Done():
			if c.State() != StateIdle && c.device != nil {
				_ = c.device.Cancel()
			}
			return
		case fn := <-c.cmdChan:
			fn()
		case ev, ok := <-events:
			if !ok {
				c.logger.Warn("speech device event stream closed")
				events = nil
				continue
			}
			c.handleDeviceEvent(ev)
		}
	}
}

// post hands fn to the run loop. It reports false once the loop has exited.
func (c *Controller) post(fn func()) bool {
	select {
	case c.cmdChan <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// do runs fn on the run loop and waits for it.
func (c *Controller) do(fn func()) {
	done := make(chan struct{})
	if !c.post(func() {
		fn()
		close(done)
	}) {
		return
	}
	select {
	case <-done:
	case <-c.stopped:
	}
}

func (c *Controller) after(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		c.post(fn)
	})
}

func (c *Controller) speak(content string) error {
	// markup-only text has nothing to say and must not interrupt playback
	if text.NormalizeForSpeech(content) == "" {
		return ErrBlankText
	}
	if c.device == nil {
		return ErrNoDevice
	}
	if c.voice == nil {
		return ErrNoVoice
	}

	id := c.invalidate()
	c.setState(StateCancelling)
	c.after(c.config.settleDelay(), func() {
		c.beginSession(id, content)
	})
	return nil
}

func (c *Controller) cancel() {
	if c.State() == StateIdle {
		return
	}

	id := c.invalidate()
	c.setState(StateIdle)
	c.after(c.config.cancelGrace(), func() {
		if c.session == id {
			c.cancelling = false
		}
	})
}

// invalidate starts a new session id, drops the queue and stops the device.
func (c *Controller) invalidate() uint64 {
	c.session++
	c.cancelling = true
	c.queue = nil
	c.cursor = 0
	c.speaking.Store(false)
	if err := c.device.Cancel(); err != nil {
		c.logger.Warn("speech device cancel failed", "error", err)
	}
	return c.session
}

func (c *Controller) beginSession(id uint64, content string) {
	if id != c.session {
		return
	}
	c.cancelling = false

	chunks := text.SplitSentences(text.NormalizeForSpeech(content))
	if len(chunks) == 0 {
		c.finish(StateFinished)
		return
	}

	c.queue = make([]Utterance, len(chunks))
	for i, chunk := range chunks {
		u := Utterance{
			Session: id,
			Index:   i,
			Text:    chunk,
			Chunk:   chunk,
			Voice:   *c.voice,
			Lang:    c.config.Language,
			Rate:    c.config.Rate,
			Pitch:   c.config.Pitch,
			Volume:  c.config.Volume,
		}
		if i == 0 && c.config.TurnPrefix != "" {
			u.Text = c.config.TurnPrefix + " " + chunk
		}
		c.queue[i] = u
	}
	c.cursor = 0

	c.logger.Debug("playback session started", "session", id, "chunks", len(chunks))
	c.speakNextChunk(id)
}

func (c *Controller) speakNextChunk(id uint64) {
	if id != c.session || c.cancelling {
		return
	}
	if c.cursor >= len(c.queue) || c.device == nil {
		c.finish(StateFinished)
		return
	}

	u := c.queue[c.cursor]
	if err := c.device.Speak(u); err != nil {
		c.logger.Warn("speech device rejected utterance", "session", id, "index", u.Index, "error", err)
		c.finish(StateErrored)
		return
	}
	// queued on the device; the start event only marks audible output
	c.setState(StateSpeaking)
}

func (c *Controller) handleDeviceEvent(ev DeviceEvent) {
	if ev.Kind == DeviceVoicesChanged {
		c.refreshVoices()
		return
	}

	if ev.Session != c.session || c.cancelling {
		c.logger.Debug("discarding stale device event", "kind", ev.Kind.String(), "session", ev.Session, "current", c.session)
		return
	}
	// duplicate or out-of-order event for an utterance already passed
	if ev.Index != c.cursor {
		return
	}

	switch ev.Kind {
	case DeviceStart:
		c.speaking.Store(true)
		c.setState(StateSpeaking)
	case DeviceEnd:
		c.cursor++
		id := c.session
		c.after(c.config.chunkGap(), func() {
			c.speakNextChunk(id)
		})
	case DeviceError:
		c.logger.Warn("speech device error", "session", ev.Session, "index", ev.Index, "error", ev.Err)
		c.finish(StateErrored)
	}
}

// finish ends the current session, reports outcome, and returns to idle.
// Late device events for the finished session become stale.
func (c *Controller) finish(outcome State) {
	c.session++
	c.queue = nil
	c.cursor = 0
	c.speaking.Store(false)
	c.setState(outcome)
	c.setState(StateIdle)
}

func (c *Controller) setVoice(name string) error {
	if c.device == nil {
		return ErrNoDevice
	}
	for _, v := range c.device.Voices() {
		if v.Name == name {
			c.config.PreferredVoice = name
			c.voice = &v
			c.logger.Info("voice pinned", "name", v.Name, "lang", v.Lang)
			return nil
		}
	}
	return ErrUnknownVoice
}

func (c *Controller) refreshVoices() {
	if c.config.PreferredVoice != "" && c.voice != nil && c.voice.Name == c.config.PreferredVoice {
		for _, v := range c.device.Voices() {
			if v == *c.voice {
				return
			}
		}
	}
	v, ok := SelectVoice(c.device.Voices(), c.config)
	if !ok {
		return
	}
	if c.voice == nil || *c.voice != v {
		c.logger.Info("selected voice", "name", v.Name, "lang", v.Lang)
	}
	c.voice = &v
}

func (c *Controller) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	for _, fn := range c.observers {
		fn(s)
	}
}
