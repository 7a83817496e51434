package utils

import (
	"testing"
)

func TestFormatKamas(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{100, "100"},
		{1000, "1 000"},
		{285000, "285 000"},
		{1250000, "1 250 000"},
		{-5000, "-5 000"},
	}
	for _, tt := range tests {
		if got := FormatKamas(tt.in); got != tt.want {
			t.Errorf("FormatKamas(%d) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKamas(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"10k", 10000},
		{"10K", 10000},
		{"1m", 1000000},
		{"2 500", 2500},
		{"2,500", 2500},
		{"1_000_000", 1000000},
		{"  50k ", 50000},
	}
	for _, tt := range tests {
		got, err := ParseKamas(tt.in)
		if err != nil {
			t.Errorf("ParseKamas(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKamas(%q) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}

func TestParseKamasRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "10x", "k", "1.5k"} {
		if _, err := ParseKamas(in); err == nil {
			t.Errorf("ParseKamas(%q) should have failed", in)
		}
	}
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		wins, games int64
		want        float64
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 2, 50},
		{3, 4, 75},
	}
	for _, tt := range tests {
		if got := WinRate(tt.wins, tt.games); got != tt.want {
			t.Errorf("WinRate(%d, %d) = %f, expected %f", tt.wins, tt.games, got, tt.want)
		}
	}
}
