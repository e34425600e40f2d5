package history

import (
	"testing"

	"imagetext-studio/core"

	"github.com/stretchr/testify/require"
)

func snap(width float64) core.DocumentSnapshot {
	return core.DocumentSnapshot{Canvas: core.CanvasSize{Width: width, Height: 100}}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewStore(DefaultMaxSize)
	s.Push("a", snap(1))
	s.Push("b", snap(2))
	s.Push("c", snap(3))

	require.True(t, s.CanUndo())
	require.False(t, s.CanRedo())

	restored, ok := s.Undo()
	require.True(t, ok)
	require.Equal(t, 2.0, restored.Canvas.Width)

	restored, ok = s.Undo()
	require.True(t, ok)
	require.Equal(t, 1.0, restored.Canvas.Width)
	require.False(t, s.CanUndo())
	require.True(t, s.CanRedo())

	restored, ok = s.Redo()
	require.True(t, ok)
	require.Equal(t, 2.0, restored.Canvas.Width)

	restored, ok = s.Redo()
	require.True(t, ok)
	require.Equal(t, 3.0, restored.Canvas.Width)
	require.False(t, s.CanRedo())
}

func TestBoundaryOperationsAreNoOps(t *testing.T) {
	s := NewStore(DefaultMaxSize)

	_, ok := s.Undo()
	require.False(t, ok)
	_, ok = s.Redo()
	require.False(t, ok)

	s.Push("only", snap(1))
	_, ok = s.Undo()
	require.False(t, ok, "a single entry has no past to return to")
	_, ok = s.Redo()
	require.False(t, ok)

	require.NotNil(t, s.Present())
	require.Equal(t, "only", s.Present().Description)
}

func TestPushDiscardsFuture(t *testing.T) {
	s := NewStore(DefaultMaxSize)
	s.Push("a", snap(1))
	s.Push("b", snap(2))

	_, ok := s.Undo()
	require.True(t, ok)
	require.True(t, s.CanRedo())

	s.Push("fork", snap(9))
	require.False(t, s.CanRedo())

	restored, ok := s.Undo()
	require.True(t, ok)
	require.Equal(t, 1.0, restored.Canvas.Width)
}

func TestEvictionBoundsPast(t *testing.T) {
	const maxSize = 5
	s := NewStore(maxSize)
	for i := 1; i <= 12; i++ {
		s.Push("step", snap(float64(i)))
	}

	require.Equal(t, maxSize-1, s.Depth())

	// Walk back to the boundary; the oldest reachable state is push 12-(maxSize-1).
	var last core.DocumentSnapshot
	steps := 0
	for {
		restored, ok := s.Undo()
		if !ok {
			break
		}
		last = restored
		steps++
	}
	require.Equal(t, maxSize-1, steps)
	require.Equal(t, 8.0, last.Canvas.Width)
}

func TestPushCopiesSnapshot(t *testing.T) {
	s := NewStore(DefaultMaxSize)
	original := core.DocumentSnapshot{
		Canvas: core.CanvasSize{Width: 10, Height: 10},
		Layers: []core.TextLayer{{ID: "l1", Text: "hello"}},
	}
	s.Push("a", original)

	original.Layers[0].Text = "mutated"
	original.Canvas.Width = 999

	present := s.Present()
	require.Equal(t, "hello", present.Snapshot.Layers[0].Text)
	require.Equal(t, 10.0, present.Snapshot.Canvas.Width)
}

func TestClear(t *testing.T) {
	s := NewStore(DefaultMaxSize)
	s.Push("a", snap(1))
	s.Push("b", snap(2))
	s.Clear()

	require.False(t, s.CanUndo())
	require.False(t, s.CanRedo())
	require.Nil(t, s.Present())
	require.Equal(t, 0, s.Depth())
}
