package pdfreader

import "testing"

func TestRejoinLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single paragraph no wraps",
			in:   "Hello world.",
			want: "Hello world.",
		},
		{
			name: "hard-wrapped paragraph joins with a space",
			in:   "This sentence\nwraps across\ntwo lines.",
			want: "This sentence wraps across two lines.",
		},
		{
			name: "blank line starts a new paragraph",
			in:   "First paragraph.\n\nSecond paragraph.",
			want: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name: "trailing blank lines are dropped",
			in:   "Only paragraph.\n\n\n",
			want: "Only paragraph.",
		},
		{
			name: "collapses interior double spaces left by the wrap",
			in:   "one  two\nthree",
			want: "one two three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RejoinLines(tt.in)
			if got != tt.want {
				t.Errorf("RejoinLines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsEncryptedErrorIdentity(t *testing.T) {
	if ErrEncrypted == nil {
		t.Fatal("ErrEncrypted must not be nil")
	}
	if ErrEncrypted.Error() == "" {
		t.Fatal("ErrEncrypted must have a message")
	}
}
