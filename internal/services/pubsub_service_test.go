package services

import "testing"

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		channel string
		want    bool
	}{
		{"room:*", "room:board:b1", true},
		{"room:*", "room:conversation:c1", true},
		{"room:*", "room", false},
		{"user:*", "user:u1", true},
		{"presence:*", "presence:u1", true},
		{"user:*", "room:board:b1", false},
		{"room:board:b1", "room:board:b1", true},
		{"room:board:b1", "room:board:b2", false},
	}

	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.channel); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.channel, got, tc.want)
		}
	}
}
