package textnorm

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips superscript digits",
			in:   "a footnote marker¹⁴ here",
			want: "a footnote marker here",
		},
		{
			name: "strips bracketed numeric citations",
			in:   "as shown previously [12, 13-14]",
			want: "as shown previously",
		},
		{
			name: "strips trailing digit run after letter",
			in:   "the result is clear3. the end.12",
			want: "the result is clear. the end.",
		},
		{
			name: "collapses multi-space runs",
			in:   "too   many     spaces",
			want: "too many spaces",
		},
		{
			name: "joins paragraphs with sentinel",
			in:   "first paragraph.\n\nsecond paragraph.",
			want: "first paragraph." + Sentinel + "second paragraph.",
		},
		{
			name: "rejoins hard-wrapped lines within a paragraph",
			in:   "this line\nwraps across\nthree lines.",
			want: "this line wraps across three lines.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Clean(tt.in)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	n := New()
	inputs := []string{
		"Chapter one⁰ discusses things [3, 4-5].\n\nIt continues here12.",
		"plain text with no artifacts at all",
		"",
	}
	for _, in := range inputs {
		once := n.Clean(in)
		twice := n.Clean(once)
		if once != twice {
			t.Errorf("Clean is not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestCleanNeverConcatenatesParagraphsWithoutSentinel(t *testing.T) {
	n := New()
	got := n.Clean("para one.\n\npara two.\n\npara three.")
	if !strings.Contains(got, Sentinel) {
		t.Fatalf("expected sentinel in output, got %q", got)
	}
	parts := strings.Split(got, Sentinel)
	if len(parts) != 3 {
		t.Fatalf("expected 3 paragraphs joined by sentinel, got %d: %q", len(parts), got)
	}
}
