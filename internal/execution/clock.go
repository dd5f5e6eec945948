package execution

import "time"

// Clock abstracts time so the fill-wait loop can be driven deterministically
// in tests. time.Now carries a monotonic reading, so deadlines computed from
// the real clock are immune to wall-clock jumps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// RealClock returns the process clock.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
