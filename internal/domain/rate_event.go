package domain

import "time"

// RateEvent records a single inbound request for rate accounting. Events are
// write-once; expiry is the store's concern.
type RateEvent struct {
	ClientKey string
	Timestamp time.Time
}
