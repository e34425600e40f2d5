// Package editor wires the document, history, render sync and autosave into
// a single editing session: every mutation flows document-first, then into
// history (debounced for continuous edits), then onto the surface.
package editor

import (
	"context"
	"sync"
	"time"

	"imagetext-studio/autosave"
	"imagetext-studio/core"
	"imagetext-studio/debounce"
	"imagetext-studio/document"
	"imagetext-studio/history"
	"imagetext-studio/rendersync"
)

// PropertyEditDelay coalesces continuous property edits (slider drags,
// arrow-key nudges) into a single history entry.
const PropertyEditDelay = 500 * time.Millisecond

// State is the externally visible session state, suitable for broadcasting
// to clients after a mutation.
type State struct {
	Background *core.BackgroundImage `json:"background,omitempty"`
	Layers     []core.TextLayer      `json:"layers"`
	Canvas     core.CanvasSize       `json:"canvas"`
	Selection  []string              `json:"selection"`
	CanUndo    bool                  `json:"canUndo"`
	CanRedo    bool                  `json:"canRedo"`
}

// Session owns one composition's editing state. All methods are safe for
// concurrent use; internally a single mutex serializes mutation, so no two
// mutations ever interleave.
type Session struct {
	mu           sync.Mutex
	doc          *document.Document
	hist         *history.Store
	syncer       *rendersync.Syncer
	surface      rendersync.Surface
	saver        *autosave.Adapter
	editDebounce *debounce.Debouncer
}

// NewSession creates a session over the given surface. saver may be nil to
// disable durability. The initial empty document is pushed as the history
// baseline so the first edit is undoable.
func NewSession(surface rendersync.Surface, saver *autosave.Adapter) *Session {
	s := &Session{
		doc:          document.New(core.CanvasSize{}),
		hist:         history.NewStore(history.DefaultMaxSize),
		surface:      surface,
		saver:        saver,
		editDebounce: debounce.New(PropertyEditDelay),
	}
	s.syncer = rendersync.NewSyncer(s.doc, surface, func(description string) {
		// Invoked from reverse-sync handlers below, which hold the lock.
		s.pushLocked(description)
		s.saveLocked()
	})
	s.hist.Push("New document", s.doc.Snapshot())
	return s
}

// SetBackground replaces the background image and sizes the canvas to the
// image's native dimensions.
func (s *Session) SetBackground(bg core.BackgroundImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.SetBackground(&bg)
	size := core.CanvasSize{Width: bg.Dimensions.Width, Height: bg.Dimensions.Height}
	s.doc.SetCanvasSize(size)
	s.surface.SetSize(size)
	s.pushLocked("Set background image")
	s.syncer.Reconcile()
	s.saveLocked()
}

// SetCanvasSize resizes the editing canvas.
func (s *Session) SetCanvasSize(size core.CanvasSize) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.SetCanvasSize(size)
	s.surface.SetSize(size)
	s.pushLocked("Resize canvas")
	s.syncer.Reconcile()
	s.saveLocked()
}

// AddLayer appends a new text layer, selects it and returns a copy.
func (s *Session) AddLayer(text string, x, y float64) core.TextLayer {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.doc.AddLayer(text, x, y)
	s.doc.Select(layer.ID)
	s.pushLocked("Add text")
	s.syncer.Reconcile()
	s.syncer.SyncSelection()
	s.saveLocked()
	return layer
}

// UpdateLayer applies a discrete property edit, recorded in history
// immediately.
func (s *Session) UpdateLayer(id string, patch document.LayerPatch, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.UpdateLayer(id, patch) {
		return false
	}
	s.pushLocked(description)
	s.syncer.Reconcile()
	s.saveLocked()
	return true
}

// UpdateLayerContinuous applies a property edit from a continuous gesture.
// The document and surface update at once; the history entry is debounced so
// a slider drag lands as a single step.
func (s *Session) UpdateLayerContinuous(id string, patch document.LayerPatch, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.UpdateLayer(id, patch) {
		return false
	}
	s.syncer.Reconcile()
	s.saveLocked()
	s.editDebounce.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pushLocked(description)
	})
	return true
}

// RemoveLayer deletes a layer. Deletion is document-driven; the surface
// object disappears on the following reconcile pass.
func (s *Session) RemoveLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.RemoveLayer(id) {
		return false
	}
	s.pushLocked("Delete text")
	s.syncer.Reconcile()
	s.syncer.SyncSelection()
	s.saveLocked()
	return true
}

// ReorderLayer moves a layer in the paint order.
func (s *Session) ReorderLayer(id string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.ReorderLayer(id, index) {
		return false
	}
	s.pushLocked("Reorder layers")
	s.syncer.Reconcile()
	s.saveLocked()
	return true
}

// Select replaces the selection. Selection changes are not history entries.
func (s *Session) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Select(ids...)
	s.syncer.SyncSelection()
}

// Nudge moves the selection by the given delta. Key-repeat bursts coalesce
// into one history entry.
func (s *Session) Nudge(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.NudgeSelection(dx, dy)
	s.syncer.Reconcile()
	s.saveLocked()
	s.editDebounce.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pushLocked("Move text")
	})
}

// DistributeHorizontally spaces the selected layers evenly along x.
func (s *Session) DistributeHorizontally() bool {
	return s.distribute(s.doc.DistributeHorizontally, "Distribute horizontally")
}

// DistributeVertically spaces the selected layers evenly along y.
func (s *Session) DistributeVertically() bool {
	return s.distribute(s.doc.DistributeVertically, "Distribute vertically")
}

func (s *Session) distribute(apply func() bool, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !apply() {
		return false
	}
	s.pushLocked(description)
	s.syncer.Reconcile()
	s.saveLocked()
	return true
}

// Undo steps history back and re-applies the previous snapshot to the
// document and surface. Returns false at the boundary.
func (s *Session) Undo() bool {
	return s.timeTravel((*history.Store).Undo)
}

// Redo steps history forward. Returns false at the boundary.
func (s *Session) Redo() bool {
	return s.timeTravel((*history.Store).Redo)
}

func (s *Session) timeTravel(step func(*history.Store) (core.DocumentSnapshot, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := step(s.hist)
	if !ok {
		return false
	}
	// A pending debounced push belongs to a gesture that predates the
	// restore; firing it now would record the restored state as a fresh
	// entry and wipe the redo future.
	s.editDebounce.Cancel()
	s.doc.Restore(snap)
	s.surface.SetSize(s.doc.CanvasSize())
	s.syncer.Reconcile()
	s.syncer.SyncSelection()
	s.saveLocked()
	return true
}

// CanUndo reports whether undo is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether redo is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// HandleObjectMoved relays a completed surface drag into the document.
func (s *Session) HandleObjectMoved(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncer.ObjectMoved(id, x, y)
	s.syncer.Reconcile()
}

// HandleObjectModified relays a completed transform gesture.
func (s *Session) HandleObjectModified(id string, x, y, scaleX, scaleY, angle float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncer.ObjectModified(id, x, y, scaleX, scaleY, angle)
	s.syncer.Reconcile()
}

// HandleTextChanged relays an in-progress inline edit (no history entry).
func (s *Session) HandleTextChanged(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncer.TextChanged(id, text)
	s.syncer.Reconcile()
	s.saveLocked()
}

// HandleTextEditingFinished relays the end of an inline edit.
func (s *Session) HandleTextEditingFinished(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncer.TextEditingFinished(id, text)
	s.syncer.Reconcile()
}

// RestoreSaved replaces the session state from the autosave blob, if one
// exists, and rebases history on it.
func (s *Session) RestoreSaved(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saver == nil {
		return false
	}
	snap, ok := s.saver.Restore(ctx)
	if !ok {
		return false
	}
	s.doc.Restore(snap)
	s.hist.Clear()
	s.hist.Push("Restore saved session", s.doc.Snapshot())
	s.surface.SetSize(s.doc.CanvasSize())
	s.syncer.Reconcile()
	s.syncer.SyncSelection()
	return true
}

// Reset clears the document, history and the persisted autosave blob.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editDebounce.Cancel()
	s.doc.Reset()
	s.hist.Clear()
	s.hist.Push("New document", s.doc.Snapshot())
	s.surface.SetSize(core.CanvasSize{})
	s.syncer.Reconcile()
	s.syncer.SyncSelection()
	if s.saver != nil {
		s.saver.Reset(ctx)
	}
}

// Flush forces pending debounced work (history entry, autosave write) to
// complete, e.g. on shutdown.
func (s *Session) Flush() {
	s.editDebounce.Flush()
	if s.saver != nil {
		s.saver.Flush()
	}
}

// Snapshot returns a deep copy of the current document state.
func (s *Session) Snapshot() core.DocumentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Snapshot()
}

// State returns the externally visible session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.doc.Snapshot()
	return State{
		Background: snap.Background,
		Layers:     snap.Layers,
		Canvas:     snap.Canvas,
		Selection:  s.doc.Selection(),
		CanUndo:    s.hist.CanUndo(),
		CanRedo:    s.hist.CanRedo(),
	}
}

// pushLocked records the current document state in history. Callers hold mu.
func (s *Session) pushLocked(description string) {
	s.hist.Push(description, s.doc.Snapshot())
}

// saveLocked schedules a debounced autosave write. Callers hold mu.
func (s *Session) saveLocked() {
	if s.saver != nil {
		s.saver.Schedule(s.doc.Snapshot())
	}
}
