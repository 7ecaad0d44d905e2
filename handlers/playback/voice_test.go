package playback

import "testing"

func TestSelectVoice(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		voices    []Voice
		preferred string
		want      string
		wantOK    bool
	}{
		{
			name:   "no voices",
			voices: nil,
			wantOK: false,
		},
		{
			name: "preferred provider beats local voice",
			voices: []Voice{
				{Name: "eSpeak English", Lang: "en-US", Local: true},
				{Name: "Google US English", Lang: "en-US"},
			},
			want:   "Google US English",
			wantOK: true,
		},
		{
			name: "other language filtered out",
			voices: []Voice{
				{Name: "Google Deutsch", Lang: "de-DE"},
				{Name: "Daniel", Lang: "en-GB", Local: true},
			},
			want:   "Daniel",
			wantOK: true,
		},
		{
			name: "exact tag beats partial tag",
			voices: []Voice{
				{Name: "Voice A", Lang: "en-GB", Local: true},
				{Name: "Voice B", Lang: "en_US", Local: true},
			},
			want:   "Voice B",
			wantOK: true,
		},
		{
			name: "female hint",
			voices: []Voice{
				{Name: "Alex", Lang: "en-US", Local: true},
				{Name: "Samantha", Lang: "en-US", Local: true},
			},
			want:   "Samantha",
			wantOK: true,
		},
		{
			name: "preferred name wins outright",
			voices: []Voice{
				{Name: "Google US English", Lang: "en-US"},
				{Name: "Fred", Lang: "en-US", Local: true},
			},
			preferred: "Fred",
			want:      "Fred",
			wantOK:    true,
		},
		{
			name: "falls back to first voice",
			voices: []Voice{
				{Name: "Thomas", Lang: "fr-FR"},
				{Name: "Anna", Lang: "de-DE"},
			},
			want:   "Thomas",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.PreferredVoice = tt.preferred
			got, ok := SelectVoice(tt.voices, c)
			if ok != tt.wantOK {
				t.Fatalf("SelectVoice ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Name != tt.want {
				t.Errorf("SelectVoice = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestLangFamily(t *testing.T) {
	for in, want := range map[string]string{
		"en-US": "en",
		"en_GB": "en",
		"DE":    "de",
		"":      "",
	} {
		if got := langFamily(in); got != want {
			t.Errorf("langFamily(%q) = %q, want %q", in, got, want)
		}
	}
}
