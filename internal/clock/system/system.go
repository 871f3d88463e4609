// Package system provides the wall-clock implementation of registry.Clock.
package system

import "time"

// Clock returns real time from the system clock.
type Clock struct{}

// New constructs a system Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now()
}
