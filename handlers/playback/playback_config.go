package playback

import "time"

type PlaybackConfig struct {
	Enabled       bool   `json:"enabled"`         // Speak formatted replies aloud.
	SettleDelayMs int    `json:"settle_delay_ms"` // Wait after cancelling the device before a new session starts.
	ChunkGapMs    int    `json:"chunk_gap_ms"`    // Pause between one chunk's end and the next chunk.
	CancelGraceMs int    `json:"cancel_grace_ms"` // Wait after Cancel before the cancelling flag is cleared.
	TurnPrefix    string `json:"turn_prefix"`     // Spoken before the first chunk only. Empty disables it.

	Language           string       `json:"language"`
	PreferredVoice     string       `json:"preferred_voice"`
	PreferredProviders []string     `json:"preferred_providers"`
	Rate               float64      `json:"rate"`
	Pitch              float64      `json:"pitch"`
	Volume             float64      `json:"volume"`
	Weights            VoiceWeights `json:"weights"`
}

// VoiceWeights are the score bonuses used by SelectVoice.
type VoiceWeights struct {
	Provider    int `json:"provider"`
	Network     int `json:"network"`
	Female      int `json:"female"`
	ExactLang   int `json:"exact_lang"`
	PartialLang int `json:"partial_lang"`
}

func DefaultVoiceWeights() VoiceWeights {
	return VoiceWeights{
		Provider:    10,
		Network:     5,
		Female:      3,
		ExactLang:   2,
		PartialLang: 1,
	}
}

// DefaultConfig returns a PlaybackConfig with sensible defaults.
func DefaultConfig() PlaybackConfig {
	return PlaybackConfig{
		Enabled:            true,
		SettleDelayMs:      150,
		ChunkGapMs:         100,
		CancelGraceMs:      200,
		TurnPrefix:         "Alright.",
		Language:           "en-US",
		PreferredProviders: []string{"Google", "Microsoft"},
		Rate:               1.0,
		Pitch:              1.0,
		Volume:             1.0,
		Weights:            DefaultVoiceWeights(),
	}
}

func (c PlaybackConfig) settleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

func (c PlaybackConfig) chunkGap() time.Duration {
	return time.Duration(c.ChunkGapMs) * time.Millisecond
}

func (c PlaybackConfig) cancelGrace() time.Duration {
	return time.Duration(c.CancelGraceMs) * time.Millisecond
}
