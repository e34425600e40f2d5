package editor

import (
	"context"
	"testing"
	"time"

	"imagetext-studio/autosave"
	"imagetext-studio/core"
	"imagetext-studio/document"
	"imagetext-studio/rendersync"
	"imagetext-studio/stores/memory"

	"github.com/stretchr/testify/require"
)

func testBackground() core.BackgroundImage {
	return core.BackgroundImage{
		URL:        "https://example.com/photo.jpg",
		Dimensions: core.ImageDimensions{Width: 400, Height: 300, AspectRatio: 4.0 / 3.0},
	}
}

func newTestSession() (*Session, *rendersync.ShadowSurface) {
	surface := rendersync.NewShadowSurface(core.CanvasSize{})
	return NewSession(surface, nil), surface
}

func TestEditMoveUndoRedoScenario(t *testing.T) {
	s, surface := newTestSession()

	s.SetBackground(testBackground())
	state := s.State()
	require.Equal(t, 400.0, state.Canvas.Width, "canvas adopts the image's native size")
	require.Equal(t, 300.0, state.Canvas.Height)

	layer := s.AddLayer("Hello, world", 100, 100)
	require.Equal(t, []string{layer.ID}, s.State().Selection, "new layers are selected")

	s.HandleObjectMoved(layer.ID, 150, 120)
	state = s.State()
	require.Equal(t, 150.0, state.Layers[0].X)
	require.Equal(t, 120.0, state.Layers[0].Y)
	require.True(t, state.CanUndo)

	require.True(t, s.Undo())
	state = s.State()
	require.Equal(t, 100.0, state.Layers[0].X)
	require.Equal(t, 100.0, state.Layers[0].Y)
	require.True(t, state.CanRedo)

	// The surface follows the restored document.
	props, ok := surface.Object(layer.ID)
	require.True(t, ok)
	require.Equal(t, 100.0, props.X)

	require.True(t, s.Redo())
	require.Equal(t, 150.0, s.State().Layers[0].X)
}

func TestUndoStepsBackToInitialDocument(t *testing.T) {
	s, _ := newTestSession()

	s.AddLayer("one", 0, 0)
	s.AddLayer("two", 0, 0)
	s.AddLayer("three", 0, 0)

	for i := 0; i < 3; i++ {
		require.True(t, s.Undo(), "undo %d", i)
	}

	state := s.State()
	require.Empty(t, state.Layers)
	require.False(t, state.CanUndo, "nothing before the initial document")

	require.False(t, s.Undo(), "boundary undo is a no-op")
	require.Empty(t, s.State().Layers)
}

func TestContinuousEditsCoalesceIntoOneHistoryEntry(t *testing.T) {
	s, _ := newTestSession()
	layer := s.AddLayer("resize me", 0, 0)
	depth := s.hist.Depth()

	size1, size2 := 40.0, 48.0
	require.True(t, s.UpdateLayerContinuous(layer.ID, document.LayerPatch{FontSize: &size1}, "Change font size"))
	require.True(t, s.UpdateLayerContinuous(layer.ID, document.LayerPatch{FontSize: &size2}, "Change font size"))

	// Document and surface are already updated; history is still pending.
	require.Equal(t, 48.0, s.State().Layers[0].FontSize)
	require.Equal(t, depth, s.hist.Depth())

	s.Flush()
	require.Equal(t, depth+1, s.hist.Depth(), "the burst lands as a single step")

	require.True(t, s.Undo())
	require.Equal(t, 32.0, s.State().Layers[0].FontSize)
}

func TestNudgeMovesImmediatelyAndDebouncesHistory(t *testing.T) {
	s, surface := newTestSession()
	layer := s.AddLayer("nudge me", 100, 100)
	depth := s.hist.Depth()

	s.Nudge(1, 0)
	s.Nudge(1, 0)
	s.Nudge(1, 0)

	props, _ := surface.Object(layer.ID)
	require.Equal(t, 103.0, props.X, "each nudge reaches the surface at once")
	require.Equal(t, depth, s.hist.Depth())

	s.Flush()
	require.Equal(t, depth+1, s.hist.Depth())

	require.True(t, s.Undo())
	require.Equal(t, 100.0, s.State().Layers[0].X)
}

func TestTextEventsRecordHistoryOnlyOnFinish(t *testing.T) {
	s, _ := newTestSession()
	layer := s.AddLayer("draft", 0, 0)
	depth := s.hist.Depth()

	s.HandleTextChanged(layer.ID, "d")
	s.HandleTextChanged(layer.ID, "dr")
	s.HandleTextChanged(layer.ID, "draft 2")
	require.Equal(t, "draft 2", s.State().Layers[0].Text)
	require.Equal(t, depth, s.hist.Depth())

	s.HandleTextEditingFinished(layer.ID, "draft 2")
	require.Equal(t, depth+1, s.hist.Depth())

	require.True(t, s.Undo())
	require.Equal(t, "draft", s.State().Layers[0].Text)
}

func TestDistributeSpacesSelectionEvenly(t *testing.T) {
	s, _ := newTestSession()
	a := s.AddLayer("a", 10, 0)
	b := s.AddLayer("b", 50, 0)
	c := s.AddLayer("c", 200, 0)
	s.Select(a.ID, b.ID, c.ID)

	require.True(t, s.DistributeHorizontally())

	state := s.State()
	xs := map[string]float64{}
	for _, l := range state.Layers {
		xs[l.ID] = l.X
	}
	require.Equal(t, 10.0, xs[a.ID])
	require.Equal(t, 105.0, xs[b.ID])
	require.Equal(t, 200.0, xs[c.ID])

	require.True(t, s.Undo())
	require.Equal(t, 50.0, s.State().Layers[1].X)
}

func TestDistributeRequiresThreeSelected(t *testing.T) {
	s, _ := newTestSession()
	a := s.AddLayer("a", 0, 0)
	b := s.AddLayer("b", 100, 0)
	s.Select(a.ID, b.ID)

	require.False(t, s.DistributeHorizontally())
	require.False(t, s.DistributeVertically())
}

func TestRemoveLayerSyncsSurface(t *testing.T) {
	s, surface := newTestSession()
	a := s.AddLayer("a", 0, 0)
	b := s.AddLayer("b", 0, 0)

	require.True(t, s.RemoveLayer(a.ID))
	require.Equal(t, []string{b.ID}, surface.ObjectIDs())
	require.False(t, s.RemoveLayer(a.ID))

	require.True(t, s.Undo())
	require.Equal(t, []string{a.ID, b.ID}, surface.ObjectIDs(), "undo restores the removed object in place")
}

func TestReorderLayerRestacksSurface(t *testing.T) {
	s, surface := newTestSession()
	a := s.AddLayer("a", 0, 0)
	b := s.AddLayer("b", 0, 0)

	require.True(t, s.ReorderLayer(b.ID, 0))
	require.Equal(t, []string{b.ID, a.ID}, surface.ObjectIDs())

	require.True(t, s.Undo())
	require.Equal(t, []string{a.ID, b.ID}, surface.ObjectIDs(), "undo restores the original stacking")

	require.True(t, s.Redo())
	require.Equal(t, []string{b.ID, a.ID}, surface.ObjectIDs())
}

func TestTimeTravelDropsPendingDebouncedPush(t *testing.T) {
	s, _ := newTestSession()
	s.AddLayer("n", 100, 100)
	s.Nudge(5, 0)

	require.True(t, s.Undo())
	require.True(t, s.State().CanRedo)
	depth := s.hist.Depth()

	// The nudge's deferred history entry must not fire against the
	// restored state.
	s.Flush()
	require.Equal(t, depth, s.hist.Depth())
	require.True(t, s.State().CanRedo, "the redo future survives the flush")
	require.Empty(t, s.State().Layers)
}

func TestAutosaveRoundTripAcrossSessions(t *testing.T) {
	store := memory.NewStore()
	const key = "image-text-composition/test"

	s1 := NewSession(rendersync.NewShadowSurface(core.CanvasSize{}), autosave.New(store, key, time.Hour))
	s1.SetBackground(testBackground())
	layer := s1.AddLayer("persist me", 50, 60)
	s1.Flush()

	s2 := NewSession(rendersync.NewShadowSurface(core.CanvasSize{}), autosave.New(store, key, time.Hour))
	require.True(t, s2.RestoreSaved(context.Background()))

	state := s2.State()
	require.NotNil(t, state.Background)
	require.Len(t, state.Layers, 1)
	require.Equal(t, layer.ID, state.Layers[0].ID)
	require.Equal(t, "persist me", state.Layers[0].Text)
	require.Equal(t, 400.0, state.Canvas.Width)
	require.False(t, state.CanUndo, "restored state is the new history baseline")
}

func TestRestoreSavedWithoutBlob(t *testing.T) {
	s := NewSession(rendersync.NewShadowSurface(core.CanvasSize{}), autosave.New(memory.NewStore(), "none", time.Hour))
	require.False(t, s.RestoreSaved(context.Background()))
}

func TestResetClearsStateHistoryAndAutosave(t *testing.T) {
	store := memory.NewStore()
	saver := autosave.New(store, "reset-key", time.Hour)
	s := NewSession(rendersync.NewShadowSurface(core.CanvasSize{}), saver)

	s.SetBackground(testBackground())
	s.AddLayer("gone soon", 0, 0)
	s.Flush()

	s.Reset(context.Background())

	state := s.State()
	require.Empty(t, state.Layers)
	require.Nil(t, state.Background)
	require.False(t, state.CanUndo)
	require.False(t, state.CanRedo)

	_, ok := saver.Restore(context.Background())
	require.False(t, ok, "the persisted blob is gone")
}

func TestManagerSessionsAreIsolatedAndPersistent(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store)

	same := m.Get("a")
	require.Same(t, same, m.Get("a"))

	m.Get("a").AddLayer("in a", 0, 0)
	m.FlushAll()

	// A fresh manager over the same store restores per-composition state.
	m2 := NewManager(store)
	require.Len(t, m2.Get("a").State().Layers, 1)
	require.Empty(t, m2.Get("b").State().Layers)
}
