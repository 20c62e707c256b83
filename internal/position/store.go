package position

import (
	"sync"
	"time"

	"github.com/groupride/convoy/pkg/core"
)

// Store holds the last known device position. Readers always see the most
// recent value; intermediate updates are not queued.
type Store struct {
	mu      sync.RWMutex
	coord   core.Coordinate
	valid   bool
	updated time.Time
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{}
}

// Current returns the last known position and whether one is available
func (s *Store) Current() (core.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coord, s.valid
}

// Set replaces the last known position
func (s *Store) Set(c core.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = c
	s.valid = true
	s.updated = time.Now()
}

// Clear marks the position as unavailable
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = core.Coordinate{}
	s.valid = false
	s.updated = time.Now()
}

// UpdatedAt returns when the position last changed. Zero if never.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
