package lock

import "sync"

// Keyed hands out a mutex per string key so unrelated keys never contend.
// Entries are reference counted and removed once the last holder releases, so
// the map does not grow with the total number of keys ever seen.
//
// The credential manager keys on (user, provider) to serialize token
// refreshes; the ingestion orchestrator keys on the meeting id to linearize
// webhook processing, cancellation and bot dispatch per meeting.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyed creates an empty keyed lock
func NewKeyed() *Keyed {
	return &Keyed{
		entries: make(map[string]*entry),
	}
}

// Lock blocks until the mutex for key is held
func (k *Keyed) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. It must only be called by a holder.
func (k *Keyed) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
