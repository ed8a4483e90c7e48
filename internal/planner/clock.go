package planner

import "time"

// Clock provides the current time. Lookups read "today" only through it.
type Clock interface {
	Now() time.Time
}

// ZoneClock reports the wall-clock time in a fixed location.
type ZoneClock struct {
	Location *time.Location
}

// NewZoneClock returns a Clock for the named IANA zone.
func NewZoneClock(name string) (ZoneClock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ZoneClock{}, err
	}
	return ZoneClock{Location: loc}, nil
}

func (c ZoneClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
