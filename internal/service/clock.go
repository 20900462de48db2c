package service

import "time"

// Clock supplies the current instant. Injected so time-window and expiry
// behavior is testable; nil means time.Now.
type Clock func() time.Time

func orSystemClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
