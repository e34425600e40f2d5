// Package history implements linear undo/redo over full-document snapshots.
package history

import (
	"time"

	"imagetext-studio/core"
)

// DefaultMaxSize bounds how many undo steps are retained.
const DefaultMaxSize = 20

// Action is one history entry: a described, timestamped document snapshot.
// Snapshots are immutable once pushed.
type Action struct {
	Timestamp   time.Time             `json:"timestamp"`
	Description string                `json:"description"`
	Snapshot    core.DocumentSnapshot `json:"snapshot"`
}

// Store holds past/present/future actions. The store performs no coalescing;
// callers debounce continuous edits before pushing. Past is ordered oldest to
// newest, future oldest-pending-redo first. All operations are total: undo
// and redo at the boundary are silent no-ops.
//
// The store owns snapshots only, never live canvas state. The document store
// is authoritative for "now"; applying an undone or redone snapshot back to
// the document is the caller's explicit second step.
type Store struct {
	past    []Action
	present *Action
	future  []Action
	maxSize int
}

// NewStore creates an empty history bounded to maxSize steps. Non-positive
// sizes fall back to DefaultMaxSize.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{maxSize: maxSize}
}

// Push records a new present action. The snapshot is deep-copied, the old
// present moves onto past (evicting the oldest entry once past would exceed
// maxSize−1) and any redoable future is discarded.
func (s *Store) Push(description string, snapshot core.DocumentSnapshot) {
	action := Action{
		Timestamp:   time.Now(),
		Description: description,
		Snapshot:    snapshot.Clone(),
	}
	if s.present != nil {
		s.past = append(s.past, *s.present)
		if len(s.past) > s.maxSize-1 {
			s.past = s.past[len(s.past)-(s.maxSize-1):]
		}
	}
	s.present = &action
	s.future = nil
}

// Undo steps back one action and returns the snapshot to re-apply to the
// document. Returns ok=false, with no state change, when there is nothing
// to undo.
func (s *Store) Undo() (core.DocumentSnapshot, bool) {
	if len(s.past) == 0 || s.present == nil {
		return core.DocumentSnapshot{}, false
	}
	previous := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append([]Action{*s.present}, s.future...)
	s.present = &previous
	return previous.Snapshot.Clone(), true
}

// Redo steps forward one action and returns the snapshot to re-apply.
// Returns ok=false, with no state change, when there is nothing to redo.
func (s *Store) Redo() (core.DocumentSnapshot, bool) {
	if len(s.future) == 0 {
		return core.DocumentSnapshot{}, false
	}
	next := s.future[0]
	s.future = s.future[1:]
	if s.present != nil {
		s.past = append(s.past, *s.present)
	}
	s.present = &next
	return next.Snapshot.Clone(), true
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool {
	return len(s.past) > 0 && s.present != nil
}

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool {
	return len(s.future) > 0
}

// Present returns the current action, or nil for an empty store.
func (s *Store) Present() *Action {
	if s.present == nil {
		return nil
	}
	action := *s.present
	return &action
}

// Depth returns how many past entries are retained.
func (s *Store) Depth() int {
	return len(s.past)
}

// Clear resets the store to its initial empty state.
func (s *Store) Clear() {
	s.past = nil
	s.present = nil
	s.future = nil
}
