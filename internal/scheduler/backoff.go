package scheduler

import "time"

// Backoff returns min(base * 2^failures, cap), guarding against shift
// overflow for long failure streaks.
func Backoff(base, cap time.Duration, failures int) time.Duration {
	if failures <= 0 || base <= 0 {
		return base
	}
	if failures > 62 {
		return cap
	}
	d := base << uint(failures)
	if d <= 0 || d > cap {
		return cap
	}
	return d
}
