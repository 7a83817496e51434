package mystere

import (
	"testing"
)

func TestPageBounds(t *testing.T) {
	tests := []struct {
		total, page int
		start, end  int
	}{
		{0, 0, 0, 0},
		{5, 0, 0, 5},
		{10, 0, 0, 10},
		{15, 0, 0, 10},
		{15, 1, 10, 15},
		{25, 2, 20, 25},
		{10, 3, 10, 10}, // past the end
	}
	for _, tt := range tests {
		start, end := pageBounds(tt.total, tt.page)
		if start != tt.start || end != tt.end {
			t.Errorf("pageBounds(%d, %d) = (%d, %d), expected (%d, %d)",
				tt.total, tt.page, start, end, tt.start, tt.end)
		}
	}
}

func TestMaxPage(t *testing.T) {
	tests := []struct {
		total, want int
	}{
		{0, 0},
		{1, 0},
		{10, 0},
		{11, 1},
		{20, 1},
		{21, 2},
	}
	for _, tt := range tests {
		if got := maxPage(tt.total); got != tt.want {
			t.Errorf("maxPage(%d) = %d, expected %d", tt.total, got, tt.want)
		}
	}
}

func TestRoundKamas(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{284.9, 285},
		{285.0, 285},
		{142.5, 143},
		{142.4, 142},
	}
	for _, tt := range tests {
		if got := roundKamas(tt.in); got != tt.want {
			t.Errorf("roundKamas(%f) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}
