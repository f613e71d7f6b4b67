package stats

import "testing"

func TestMonthChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		want     float64
	}{
		{"growth", 30, 20, 50},
		{"decline", 10, 20, -50},
		{"flat", 20, 20, 0},
		{"empty previous month", 15, 0, 0},
		{"both empty", 0, 0, 0},
		{"drop to zero", 0, 8, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := monthChange(tt.current, tt.previous); got != tt.want {
				t.Errorf("monthChange(%d, %d) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}
