// Package snooze holds the volatile suppression layer for dose reminders.
// Entries live in process memory only and are lost on restart; the window is
// short enough (default 5 minutes) that this is acceptable. The layer is
// deliberately not backed by the intake log store: its semantics are
// overwrite-always, the log's are insert-once.
package snooze

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultDuration is the suppression window applied when the caller does not
// specify one.
const DefaultDuration = 5 * time.Minute

// Store is a concurrency-safe (medication, time) -> suppress-until map.
// Expired entries are simply ignored on lookup; go-cache reclaims them in the
// background.
type Store struct {
	c *cache.Cache
}

// NewStore creates an empty snooze store.
func NewStore() *Store {
	return &Store{c: cache.New(DefaultDuration, 10*time.Minute)}
}

func key(medication, clock string) string {
	return medication + "\x00" + clock
}

// Set records a suppression until the given instant, overwriting any prior
// entry for the same dose. Repeated snoozing keeps pushing the window
// forward. The TTL is computed against the caller's now, not the machine
// clock; liveness is decided by ActiveUntil, the TTL only reclaims memory.
func (s *Store) Set(medication, clock string, until, now time.Time) {
	ttl := until.Sub(now)
	if ttl <= 0 {
		s.c.Delete(key(medication, clock))
		return
	}
	s.c.Set(key(medication, clock), until, ttl)
}

// ActiveUntil returns the suppress-until instant for a dose if a snooze is
// still live at now.
func (s *Store) ActiveUntil(medication, clock string, now time.Time) (time.Time, bool) {
	v, ok := s.c.Get(key(medication, clock))
	if !ok {
		return time.Time{}, false
	}
	until := v.(time.Time)
	if !until.After(now) {
		return time.Time{}, false
	}
	return until, true
}
