package websocket

import (
	"errors"
	"sync"

	"voicechat/handlers/playback"
	"voicechat/protocol"
)

var errDeviceClosed = errors.New("websocket: speech device closed")

// BrowserDevice relays utterances to the browser's speech synthesis and
// turns its progress messages back into device events.
type BrowserDevice struct {
	send   func(protocol.MessageType, interface{}) error
	done   <-chan struct{}
	events chan playback.DeviceEvent

	mu     sync.Mutex
	voices []playback.Voice
}

func newBrowserDevice(send func(protocol.MessageType, interface{}) error, done <-chan struct{}) *BrowserDevice {
	return &BrowserDevice{
		send:   send,
		done:   done,
		events: make(chan playback.DeviceEvent, 32),
	}
}

func (d *BrowserDevice) Speak(u playback.Utterance) error {
	return d.send(protocol.MsgDeviceSpeak, protocol.DeviceSpeakPayload{
		Session: u.Session,
		Index:   u.Index,
		Text:    u.Text,
		Voice:   u.Voice.Name,
		Lang:    u.Lang,
		Rate:    u.Rate,
		Pitch:   u.Pitch,
		Volume:  u.Volume,
	})
}

func (d *BrowserDevice) Cancel() error {
	return d.send(protocol.MsgDeviceCancel, nil)
}

func (d *BrowserDevice) Voices() []playback.Voice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]playback.Voice(nil), d.voices...)
}

func (d *BrowserDevice) Events() <-chan playback.DeviceEvent {
	return d.events
}

// handle consumes device.* messages. It reports false for anything else.
func (d *BrowserDevice) handle(env protocol.Envelope) (bool, error) {
	switch env.Type {
	case protocol.MsgDeviceVoices:
		p, err := protocol.Payload[protocol.DeviceVoicesPayload](env)
		if err != nil {
			return true, err
		}
		voices := make([]playback.Voice, 0, len(p.Voices))
		for _, v := range p.Voices {
			voices = append(voices, playback.Voice{Name: v.Name, Lang: v.Lang, Local: v.Local, Default: v.Default})
		}
		d.mu.Lock()
		d.voices = voices
		d.mu.Unlock()
		return true, d.push(playback.DeviceEvent{Kind: playback.DeviceVoicesChanged})

	case protocol.MsgDeviceStart, protocol.MsgDeviceEnd, protocol.MsgDeviceError:
		p, err := protocol.Payload[protocol.DeviceProgressPayload](env)
		if err != nil {
			return true, err
		}
		ev := playback.DeviceEvent{Session: p.Session, Index: p.Index}
		switch env.Type {
		case protocol.MsgDeviceStart:
			ev.Kind = playback.DeviceStart
		case protocol.MsgDeviceEnd:
			ev.Kind = playback.DeviceEnd
		default:
			ev.Kind = playback.DeviceError
			ev.Err = errors.New(p.Error)
		}
		return true, d.push(ev)
	}
	return false, nil
}

func (d *BrowserDevice) push(ev playback.DeviceEvent) error {
	select {
	case d.events <- ev:
		return nil
	case <-d.done:
		return errDeviceClosed
	}
}
