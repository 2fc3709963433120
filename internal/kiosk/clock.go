package kiosk

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock tells time and schedules callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// TimerID names a timer scheduled through the App.
type TimerID uint64

// Intervals used by the states.
const (
	TokenPollInterval  = 2 * time.Second
	ReaderPollInterval = time.Second
	TagPollInterval    = 100 * time.Millisecond
	ErrorClearDelay    = 5 * time.Second
	MenuRestoreDelay   = time.Second
	DefaultIdleTimeout = 60 * time.Second
	lookupTimeout      = 10 * time.Second
	printTimeout       = 30 * time.Second
)
