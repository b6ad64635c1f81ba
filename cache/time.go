package cache

import "time"

// TimeProvider supplies the current time used to compute the age of cache entries.
type TimeProvider interface {
	Now() time.Time
}

// BuildCommenced reports the time a resolution session started for every call.
// Entries written during the session therefore have an age of zero, which marks
// them as verified within the session.
type BuildCommenced struct {
	start time.Time
}

// NewBuildCommenced creates a time provider fixed at start.
func NewBuildCommenced(start time.Time) BuildCommenced {
	return BuildCommenced{start: start}
}

func (b BuildCommenced) Now() time.Time { return b.start }

// TimeProviderFunc adapts a function to a TimeProvider.
type TimeProviderFunc func() time.Time

func (f TimeProviderFunc) Now() time.Time { return f() }

// Age computes how old an entry cached at the given time is. It is never negative.
func Age(tp TimeProvider, cachedAt time.Time) time.Duration {
	age := tp.Now().Sub(cachedAt)
	if age < 0 {
		return 0
	}
	return age
}
