package outreach

import "time"

// Clock abstracts time for the scheduler gate so tests can pin the
// weekday and hour.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}
