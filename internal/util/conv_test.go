package util

import "testing"

func TestParseEstimatedTime(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"45 Minuten", 45},
		{"45 min", 45},
		{"30", 30},
		{"1,5 Stunden", 90},
		{"1.5 Stunden", 90},
		{"2 Std", 120},
		{"1 hour", 60},
		{"2h", 120},
		{"0,75 stunden", 45},
		{"", 0},
		{"bald", 0},
		{"-10 min", 0},
	}
	for _, tc := range cases {
		if got := ParseEstimatedTime(tc.raw); got != tc.want {
			t.Errorf("ParseEstimatedTime(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
