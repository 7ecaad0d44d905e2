package espeak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"voicechat/core"
	"voicechat/handlers/playback"
)

type Config struct {
	Binary string           `json:"binary"`
	Voices []playback.Voice `json:"voices"`
	// Words per minute at rate 1.0.
	BaseWPM int `json:"base_wpm"`
}

func DefaultConfig() Config {
	return Config{
		Binary:  "espeak-ng",
		BaseWPM: 175,
		Voices: []playback.Voice{
			{Name: "en-us", Lang: "en-US", Local: true, Default: true},
			{Name: "en-gb", Lang: "en-GB", Local: true},
			{Name: "en-us+f3", Lang: "en-US", Local: true},
		},
	}
}

// Device speaks utterances by running one espeak-ng process each.
type Device struct {
	config Config
	logger *core.Logger
	ctx    context.Context
	events chan playback.DeviceEvent

	mu      sync.Mutex
	current *exec.Cmd
	// incremented on Cancel; a process started under an older value was killed
	epoch uint64
}

// NewDevice returns a device whose processes are bound to ctx.
func NewDevice(ctx context.Context, config Config, logger *core.Logger) (*Device, error) {
	if _, err := exec.LookPath(config.Binary); err != nil {
		return nil, fmt.Errorf("espeak: %w", err)
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Device{
		config: config,
		logger: logger.With(map[string]interface{}{"component": "espeak"}),
		ctx:    ctx,
		events: make(chan playback.DeviceEvent, 32),
	}, nil
}

func (d *Device) Voices() []playback.Voice {
	return append([]playback.Voice(nil), d.config.Voices...)
}

func (d *Device) Events() <-chan playback.DeviceEvent {
	return d.events
}

func (d *Device) Speak(u playback.Utterance) error {
	cmd := exec.CommandContext(d.ctx, d.config.Binary, d.args(u)...)

	d.mu.Lock()
	if d.current != nil {
		d.mu.Unlock()
		return errors.New("espeak: already speaking")
	}
	if err := cmd.Start(); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("espeak: start: %w", err)
	}
	d.current = cmd
	epoch := d.epoch
	d.mu.Unlock()

	d.push(playback.DeviceEvent{Kind: playback.DeviceStart, Session: u.Session, Index: u.Index})
	go d.wait(cmd, epoch, u)
	return nil
}

func (d *Device) wait(cmd *exec.Cmd, epoch uint64, u playback.Utterance) {
	err := cmd.Wait()

	d.mu.Lock()
	if d.current == cmd {
		d.current = nil
	}
	cancelled := d.epoch != epoch
	d.mu.Unlock()

	if cancelled {
		return
	}
	if err != nil {
		d.push(playback.DeviceEvent{Kind: playback.DeviceError, Session: u.Session, Index: u.Index, Err: err})
		return
	}
	d.push(playback.DeviceEvent{Kind: playback.DeviceEnd, Session: u.Session, Index: u.Index})
}

// Cancel kills the running process, if any.
func (d *Device) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.epoch++
	if d.current == nil || d.current.Process == nil {
		return nil
	}
	cmd := d.current
	d.current = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("espeak: kill: %w", err)
	}
	return nil
}

func (d *Device) args(u playback.Utterance) []string {
	voice := u.Voice.Name
	if voice == "" {
		voice = u.Lang
	}
	rate, pitch, volume := u.Rate, u.Pitch, u.Volume
	if rate <= 0 {
		rate = 1
	}
	if pitch <= 0 {
		pitch = 1
	}
	if volume <= 0 {
		volume = 1
	}
	return []string{
		"-v", voice,
		"-s", strconv.Itoa(int(float64(d.config.BaseWPM) * rate)),
		"-p", strconv.Itoa(clamp(int(50*pitch), 0, 99)),
		"-a", strconv.Itoa(clamp(int(100*volume), 0, 200)),
		"--", u.Text,
	}
}

func (d *Device) push(ev playback.DeviceEvent) {
	select {
	case d.events <- ev:
	case <-d.ctx.Done():
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
