package canpar

import "time"

// SetNow swaps the clock used for default shipping dates.
func SetNow(f func() time.Time) (restore func()) {
	prev := now
	now = f
	return func() { now = prev }
}
