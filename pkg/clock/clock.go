package clock

import "time"

// Clock supplies the current time and the local timezone to the engine.
// Rule functions never read the wall clock themselves; they take a Clock so
// tests can pin time and zone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// System returns a Clock backed by the wall clock, reporting local days in loc.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock pinned to a single instant. Used by tests.
type Fixed struct {
	T   time.Time
	Loc *time.Location
}

func (f Fixed) Now() time.Time {
	return f.T
}

func (f Fixed) Location() *time.Location {
	if f.Loc == nil {
		return time.UTC
	}
	return f.Loc
}
