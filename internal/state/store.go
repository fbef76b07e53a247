package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/gridsync/internal/orchestrator"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Preview             orchestrator.Preview
	HasPreview          bool
	Report              orchestrator.Report
	HasReport           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive preview failures
}

// IsFailing returns true when previews have failed several times in a row.
func (s Snapshot) IsFailing() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update replaces the stored preview. When err is non-nil the previous
// preview is kept but the error is recorded for visibility.
func (s *Store) Update(preview *orchestrator.Preview, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.clock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if preview != nil {
		s.snapshot.Preview = clonePreview(*preview)
		s.snapshot.HasPreview = true
	} else {
		s.snapshot.Preview = orchestrator.Preview{}
		s.snapshot.HasPreview = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// RecordReport stores the outcome of the latest sync pass.
func (s *Store) RecordReport(rep orchestrator.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Report = cloneReport(rep)
	s.snapshot.HasReport = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Preview = clonePreview(s.snapshot.Preview)
	snap.Report = cloneReport(s.snapshot.Report)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// clonePreview copies the slices a caller could append to or reorder. The
// reconcile buckets themselves are never mutated after a plan is built.
func clonePreview(p orchestrator.Preview) orchestrator.Preview {
	p.Failed = slices.Clone(p.Failed)
	p.Pending = slices.Clone(p.Pending)
	p.Users = slices.Clone(p.Users)
	return p
}

func cloneReport(r orchestrator.Report) orchestrator.Report {
	r.Failed = slices.Clone(r.Failed)
	r.Users = slices.Clone(r.Users)
	return r
}
