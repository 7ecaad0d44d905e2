package text

import (
	"slices"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "three sentences",
			input: "Hello world. How are you? Fine!",
			want:  []string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			name:  "decimal is not a boundary",
			input: "Version 2.5 is out. Great",
			want:  []string{"Version 2.5 is out.", "Great"},
		},
		{
			name:  "punctuation runs stay together",
			input: "Wait... what?! Ok.",
			want:  []string{"Wait...", "what?!", "Ok."},
		},
		{
			name:  "no boundary",
			input: "no punctuation here",
			want:  []string{"no punctuation here"},
		},
		{
			name:  "newline boundary",
			input: "One.\nTwo.",
			want:  []string{"One.", "Two."},
		},
		{
			name:  "empty",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitSentences(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeForSpeech(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "heading and bold",
			input: "## Title\n**Bold** text",
			want:  "Title Bold text",
		},
		{
			name:  "ellipsis",
			input: "Wait... really",
			want:  "Wait. really",
		},
		{
			name:  "quotes and emoji",
			input: `He said "hi" 😀`,
			want:  "He said hi",
		},
		{
			name:  "html",
			input: "<b>x</b> y",
			want:  "x y",
		},
		{
			name:  "horizontal rule",
			input: "a\n---\nb",
			want:  "a b",
		},
		{
			name:  "plain",
			input: "Nothing to do.",
			want:  "Nothing to do.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForSpeech(tt.input); got != tt.want {
				t.Errorf("NormalizeForSpeech(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
