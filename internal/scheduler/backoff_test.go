package scheduler

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	base := 2 * time.Second
	cap := 5 * time.Minute

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{7, 256 * time.Second},
		{8, 5 * time.Minute}, // 512s clamps to the cap
		{20, 5 * time.Minute},
		{63, 5 * time.Minute}, // shift would overflow
		{200, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := Backoff(base, cap, tt.failures); got != tt.want {
			t.Errorf("Backoff(%d): got %s, want %s", tt.failures, got, tt.want)
		}
	}
}

func TestBackoff_ZeroBase(t *testing.T) {
	if got := Backoff(0, time.Minute, 5); got != 0 {
		t.Errorf("Backoff with zero base: got %s, want 0", got)
	}
}
