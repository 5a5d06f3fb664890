package storage

import "time"

// sequenceClock hands out creation times that never go backwards, so
// ordering by creation time agrees with ordering by id. Not safe for
// concurrent use; callers hold the store lock.
type sequenceClock struct {
	now  func() time.Time
	last time.Time
}

func newSequenceClock(now func() time.Time) *sequenceClock {
	if now == nil {
		now = time.Now
	}
	return &sequenceClock{now: now}
}

// next returns the creation time for the next event without committing it.
func (c *sequenceClock) next() time.Time {
	t := c.now().UTC()
	if t.Before(c.last) {
		return c.last
	}
	return t
}

// commit records t as the latest handed-out time.
func (c *sequenceClock) commit(t time.Time) {
	if t.After(c.last) {
		c.last = t
	}
}
