package config

import (
	"sync"
	"sync/atomic"
)

// Store hands out immutable settings snapshots and swaps them wholesale on update
type Store struct {
	current atomic.Pointer[Settings]
	mu      sync.Mutex

	listeners []func(Settings)
}

// NewStore creates a store seeded with s
func NewStore(s Settings) *Store {
	st := &Store{}
	st.current.Store(&s)
	return st
}

// Snapshot returns a copy of the current settings
func (st *Store) Snapshot() Settings {
	return *st.current.Load()
}

// Update applies fn to a copy of the current settings and publishes the result
func (st *Store) Update(fn func(*Settings)) Settings {
	st.mu.Lock()
	next := *st.current.Load()
	fn(&next)
	st.current.Store(&next)
	listeners := append([]func(Settings){}, st.listeners...)
	st.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// OnChange registers a callback fired after every Update
func (st *Store) OnChange(fn func(Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, fn)
}
