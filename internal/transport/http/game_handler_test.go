package http

import "testing"

func TestExtractBraces(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"wrapped in prose", "Sure, here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"no braces", "no json here", "no json here"},
		{"nested braces", `prefix {"a":{"b":1}} suffix`, `{"a":{"b":1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractBraces(tc.in); got != tc.want {
				t.Errorf("extractBraces(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
