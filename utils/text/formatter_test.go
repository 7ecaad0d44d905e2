package text

import (
	"testing"
)

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  EmptyResponseMessage,
		},
		{
			name:  "whitespace only",
			input: "  \n\t ",
			want:  EmptyResponseMessage,
		},
		{
			name:  "output wins over response",
			input: `{"output":"A","response":"B"}`,
			want:  "A",
		},
		{
			name:  "response field",
			input: `{"response":"Hi there"}`,
			want:  "Hi there",
		},
		{
			name:  "nested data message",
			input: `{"data":{"message":"Nested"}}`,
			want:  "Nested",
		},
		{
			name:  "string array takes first",
			input: `["First","Second"]`,
			want:  "First",
		},
		{
			name:  "quoted plain text keeps its quotes",
			input: `"Carpe diem"`,
			want:  `"Carpe diem"`,
		},
		{
			name:  "long loose string in unknown object",
			input: `{"id":7,"body":"this string is definitely long enough"}`,
			want:  "this string is definitely long enough",
		},
		{
			name:  "short strings are not loose matches",
			input: `{"id":7,"body":"short","note":"this one is long enough to match"}`,
			want:  "this one is long enough to match",
		},
		{
			name:  "malformed json with output field",
			input: `{"output":"Hello`,
			want:  "Hello",
		},
		{
			name:  "plain text",
			input: "Sure, here you go.",
			want:  "Sure, here you go.",
		},
		{
			name:  "escaped newlines",
			input: `Line1\nLine2`,
			want:  "Line1\nLine2",
		},
		{
			name:  "response label",
			input: "Response: Hello",
			want:  "Hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResponse(tt.input); got != tt.want {
				t.Errorf("FormatResponse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatResponseUnknownShape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: `{"id":7}`, want: `{"id":7}`},
		{input: `{"a":1}`, want: `{"a":1}`},
		{input: `{"a":{"b":"c"}}`, want: `{"a":{"b":"c"}}`},
		{input: `{"z":1,"a":[1,2]}`, want: `{"z":1,"a":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatResponse(tt.input); got != tt.want {
				t.Errorf("FormatResponse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanHTMLAndFormatText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraphs and breaks",
			input: "<p>Hello <b>world</b></p><br>Bye",
			want:  "Hello world\n\nBye",
		},
		{
			name:  "headings",
			input: "<h2>Title</h2><p>Body</p>",
			want:  "Title\n\nBody",
		},
		{
			name:  "list items",
			input: "<ul><li>One</li><li>Two</li></ul>",
			want:  "• One\n• Two",
		},
		{
			name:  "markdown emphasis and links",
			input: "**Bold** and *italic* and [link](http://example.com)",
			want:  "Bold and italic and link",
		},
		{
			name:  "collapses blank lines",
			input: "a\n\n\n\nb",
			want:  "a\n\nb",
		},
		{
			name:  "collapses horizontal space",
			input: "a  \t b \n  c",
			want:  "a b\nc",
		},
		{
			name:  "crlf",
			input: "a\r\nb",
			want:  "a\nb",
		},
		{
			name:  "unknown tags dropped",
			input: `<span class="x">hi</span>`,
			want:  "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanHTMLAndFormatText(tt.input); got != tt.want {
				t.Errorf("CleanHTMLAndFormatText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatResponseIdempotent(t *testing.T) {
	inputs := []string{
		`{"output":"<p>Hello <b>world</b></p>"}`,
		"<ul><li>One</li><li>Two</li></ul>",
		"**Bold** text\n\n\n\nmore",
		`["a *b* c"]`,
		"2 * 3 * 4 * 5",
	}
	for _, in := range inputs {
		once := FormatResponse(in)
		twice := FormatResponse(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFormatterInterface(t *testing.T) {
	var f IFormatter = ResponseFormatter{}
	if got := f.Format(`{"message":"ok"}`); got != "ok" {
		t.Errorf("Format = %q, want %q", got, "ok")
	}
}
