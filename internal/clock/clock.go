package clock

import "time"

// Clock supplies the current time to the engine. Values returned by the
// system clock carry a monotonic reading, so countdown arithmetic between two
// reads in the same process ignores wall-clock changes.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// wallClock strips the monotonic reading so the value only compares as
// wall-clock time. Used at the suspend/resume boundary.
func wallClock(t time.Time) time.Time {
	return t.Round(0)
}
