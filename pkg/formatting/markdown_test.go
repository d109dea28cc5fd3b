package formatting_test

import (
	"testing"

	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain passes through", "seals match", "seals match"},
		{"heading", "## Conclusion\nMatch", "Conclusion\nMatch"},
		{"bold", "result: **consistent**", "result: consistent"},
		{"italic", "a *minor* shift", "a minor shift"},
		{"bullets", "- outer ring\n* inner text", "• outer ring\n• inner text"},
		{"inline code", "field `diameter` ok", "field diameter ok"},
		{"link", "see [docs](http://x)", "see docs"},
		{"fence keeps body", "```\nraw\n```", "raw"},
		{"rule dropped", "a\n---\nb", "a\nb"},
		{"crlf normalized", "a\r\nb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
