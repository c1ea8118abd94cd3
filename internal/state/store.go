package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/arbox/internal/arbox"
)

// Snapshot represents the latest schedule available to the UI.
type Snapshot struct {
	Day                 time.Time
	Slots               []arbox.Slot
	HasSchedule         bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored schedule for day. When err is non-nil the
// previous slots are kept but the error is recorded for visibility. A
// successful update for a different day replaces the slots outright.
func (s *Store) Update(day time.Time, slots []arbox.Slot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Day = day
	s.snapshot.Slots = cloneSlots(slots)
	s.snapshot.HasSchedule = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Slots = cloneSlots(s.snapshot.Slots)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlots(items []arbox.Slot) []arbox.Slot {
	if len(items) == 0 {
		return nil
	}
	dup := make([]arbox.Slot, len(items))
	copy(dup, items)
	return dup
}
