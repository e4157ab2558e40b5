package infra

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	base := 1 * time.Second
	max := 60 * time.Second

	tests := []struct {
		name  string
		retry int
		want  time.Duration
	}{
		{"first retry", 0, 1 * time.Second},
		{"second retry", 1, 2 * time.Second},
		{"third retry", 2, 4 * time.Second},
		{"sixth retry", 5, 32 * time.Second},
		{"capped at max", 6, 60 * time.Second},
		{"far past cap", 20, 60 * time.Second},
		{"overflow clamps to max", 80, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBackoff(tt.retry, base, max)
			if got != tt.want {
				t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.retry, got, tt.want)
			}
		})
	}
}
