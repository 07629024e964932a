// internal/util/clock.go
package util

import "time"

// Clock supplies the current time in the ledger's business calendar.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and converts it to Location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location (UTC when unset).
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. Used by tests and one-shot batch runs.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.At
}
