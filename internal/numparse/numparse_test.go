package numparse

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOk bool
	}{
		{"12", 12, true},
		{"  7  ", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"twelve", 12, true},
		{"Twelve", 12, true},
		{"TWENTY-FIVE", 25, true},
		{"thirty", 30, true},
		{"thirty-one", 0, false},
		{"IV", 4, true},
		{"iv", 4, true},
		{"XII", 12, true},
		{"XIV", 14, true},
		{"MCM", 1900, false},
		{"IX", 9, true},
		{"", 0, false},
		{"not a number", 0, false},
		{"XIIII", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.wantOk {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRomanRejectsOutOfRange(t *testing.T) {
	// CC = 200, must be rejected by the < 200 bound.
	if _, ok := parseRoman("CC"); ok {
		t.Error("expected CC to be rejected as out of range")
	}
}

func TestParseArabicPrecedesWordAndRoman(t *testing.T) {
	// "12" should never fall through to word/roman lookup paths.
	got, ok := Parse("12")
	if !ok || got != 12 {
		t.Fatalf("Parse(12) = %d, %v", got, ok)
	}
}
