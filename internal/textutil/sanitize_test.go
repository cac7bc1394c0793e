package textutil

import "testing"

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  Alice ", "alice", true},
		{"bob_smith", "bob_smith", true},
		{"", "", false},
		{"*", "", false},
		{"../etc", "", false},
		{"a/b", "", false},
		{`a\b`, "", false},
		{"two words", "", false},
		{"user@CB", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeUsername(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeUsername(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(` CB_a:b*c?.mp4 `); got != "CB_a-b-c.mp4" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}
