// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() and read back the sleeps
// instead of waiting through them.
package clock

import "time"

// Clock is the time seam used by code that would otherwise call
// time.Now or time.Sleep directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
