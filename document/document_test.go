package document

import (
	"testing"

	"imagetext-studio/core"

	"github.com/stretchr/testify/require"
)

func TestAddLayerDefaults(t *testing.T) {
	d := New(core.CanvasSize{Width: 800, Height: 600})
	layer := d.AddLayer("Hello", 100, 50)

	require.NotEmpty(t, layer.ID)
	require.Equal(t, "Hello", layer.Text)
	require.Equal(t, DefaultFontFamily, layer.FontFamily)
	require.Equal(t, float64(DefaultFontSize), layer.FontSize)
	require.Equal(t, DefaultFill, layer.Fill)
	require.Equal(t, 1.0, layer.Opacity)
	require.Equal(t, 100.0, layer.X)
	require.Equal(t, 50.0, layer.Y)
	require.Equal(t, 1.0, layer.ScaleX)
	require.Equal(t, 1.0, layer.ScaleY)
}

func TestAddLayerIDsAreUnique(t *testing.T) {
	d := New(core.CanvasSize{})
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		layer := d.AddLayer("x", 0, 0)
		require.False(t, seen[layer.ID], "duplicate layer id %s", layer.ID)
		seen[layer.ID] = true
	}
}

func TestUpdateLayerPartialPatch(t *testing.T) {
	d := New(core.CanvasSize{})
	layer := d.AddLayer("Hello", 10, 20)

	size := 48.0
	fill := "#ff0000"
	require.True(t, d.UpdateLayer(layer.ID, LayerPatch{FontSize: &size, Fill: &fill}))

	updated, ok := d.Layer(layer.ID)
	require.True(t, ok)
	require.Equal(t, 48.0, updated.FontSize)
	require.Equal(t, "#ff0000", updated.Fill)
	// Untouched fields keep their values.
	require.Equal(t, "Hello", updated.Text)
	require.Equal(t, 10.0, updated.X)

	require.False(t, d.UpdateLayer("missing", LayerPatch{Fill: &fill}))
}

func TestUpdateLayerClampsOpacity(t *testing.T) {
	d := New(core.CanvasSize{})
	layer := d.AddLayer("x", 0, 0)

	for _, tc := range []struct{ in, want float64 }{
		{-0.5, 0}, {0.4, 0.4}, {1.7, 1},
	} {
		v := tc.in
		require.True(t, d.UpdateLayer(layer.ID, LayerPatch{Opacity: &v}))
		got, _ := d.Layer(layer.ID)
		require.Equal(t, tc.want, got.Opacity)
	}
}

func TestUpdateLayerShadow(t *testing.T) {
	d := New(core.CanvasSize{})
	layer := d.AddLayer("x", 0, 0)

	shadow := core.Shadow{Color: "#00000080", Blur: 4, OffsetX: 2, OffsetY: 2}
	require.True(t, d.UpdateLayer(layer.ID, LayerPatch{Shadow: &shadow}))
	got, _ := d.Layer(layer.ID)
	require.NotNil(t, got.Shadow)
	require.Equal(t, 4.0, got.Shadow.Blur)

	require.True(t, d.UpdateLayer(layer.ID, LayerPatch{ClearShadow: true}))
	got, _ = d.Layer(layer.ID)
	require.Nil(t, got.Shadow)
}

func TestRemoveLayerPrunesSelection(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 0)
	b := d.AddLayer("b", 0, 0)
	d.Select(a.ID, b.ID)

	require.True(t, d.RemoveLayer(a.ID))
	require.Equal(t, []string{b.ID}, d.Selection())
	require.False(t, d.RemoveLayer(a.ID))
}

func TestReorderLayerClampsIndex(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 0)
	b := d.AddLayer("b", 0, 0)
	c := d.AddLayer("c", 0, 0)

	require.True(t, d.ReorderLayer(c.ID, 0))
	require.Equal(t, []string{c.ID, a.ID, b.ID}, d.LayerIDs())

	require.True(t, d.ReorderLayer(c.ID, 99))
	require.Equal(t, []string{a.ID, b.ID, c.ID}, d.LayerIDs())

	require.True(t, d.ReorderLayer(a.ID, -5))
	require.Equal(t, []string{a.ID, b.ID, c.ID}, d.LayerIDs())

	require.False(t, d.ReorderLayer("missing", 0))
}

func TestSelectKeepsOnlyExistingLayers(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 0)

	d.Select(a.ID, "ghost")
	require.Equal(t, []string{a.ID}, d.Selection())

	d.ClearSelection()
	require.Empty(t, d.Selection())
}

func TestNudgeSelectionSkipsLockedAndAllowsOffCanvas(t *testing.T) {
	d := New(core.CanvasSize{Width: 100, Height: 100})
	a := d.AddLayer("a", 10, 10)
	b := d.AddLayer("b", 10, 10)
	locked := true
	d.UpdateLayer(b.ID, LayerPatch{Locked: &locked})
	d.Select(a.ID, b.ID)

	d.NudgeSelection(-500, 250)

	movedA, _ := d.Layer(a.ID)
	require.Equal(t, -490.0, movedA.X, "position is not clamped to the canvas")
	require.Equal(t, 260.0, movedA.Y)

	stillB, _ := d.Layer(b.ID)
	require.Equal(t, 10.0, stillB.X)
	require.Equal(t, 10.0, stillB.Y)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	d := New(core.CanvasSize{Width: 400, Height: 300})
	d.SetBackground(&core.BackgroundImage{
		URL:        "https://example.com/bg.jpg",
		Dimensions: core.ImageDimensions{Width: 400, Height: 300, AspectRatio: 4.0 / 3.0},
	})
	a := d.AddLayer("a", 1, 2)
	d.Select(a.ID)

	snap := d.Snapshot()
	require.Nil(t, snap.Layers[0].Shadow)

	// Snapshots are deep copies: later edits do not leak in.
	text := "changed"
	d.UpdateLayer(a.ID, LayerPatch{Text: &text})
	require.Equal(t, "a", snap.Layers[0].Text)

	other := New(core.CanvasSize{})
	other.Restore(snap)
	require.Equal(t, 400.0, other.CanvasSize().Width)
	require.NotNil(t, other.Background())
	require.Equal(t, []string{a.ID}, other.LayerIDs())
	require.Empty(t, other.Selection(), "selection is not part of snapshots")
}

func TestRestorePrunesStaleSelection(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 0)
	empty := d.Snapshot()
	_ = a

	b := d.AddLayer("b", 0, 0)
	d.Select(b.ID)
	d.Restore(empty)
	require.Empty(t, d.Selection())
}

func TestDistributeHorizontally(t *testing.T) {
	d := New(core.CanvasSize{Width: 400, Height: 300})
	a := d.AddLayer("a", 10, 0)
	b := d.AddLayer("b", 50, 0)
	c := d.AddLayer("c", 200, 0)
	d.Select(a.ID, b.ID, c.ID)

	require.True(t, d.DistributeHorizontally())

	gotA, _ := d.Layer(a.ID)
	gotB, _ := d.Layer(b.ID)
	gotC, _ := d.Layer(c.ID)
	require.Equal(t, 10.0, gotA.X, "the extremes keep their positions")
	require.Equal(t, 105.0, gotB.X, "the middle lands on the midpoint")
	require.Equal(t, 200.0, gotC.X)
}

func TestDistributeNeedsThreeUnlockedLayers(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 0)
	b := d.AddLayer("b", 100, 0)
	c := d.AddLayer("c", 200, 0)

	d.Select(a.ID, b.ID)
	require.False(t, d.DistributeHorizontally())

	locked := true
	d.UpdateLayer(c.ID, LayerPatch{Locked: &locked})
	d.Select(a.ID, b.ID, c.ID)
	require.False(t, d.DistributeHorizontally(), "locked layers do not count")
}

func TestDistributeVertically(t *testing.T) {
	d := New(core.CanvasSize{})
	a := d.AddLayer("a", 0, 300)
	b := d.AddLayer("b", 0, 20)
	c := d.AddLayer("c", 0, 100)
	d.Select(a.ID, b.ID, c.ID)

	require.True(t, d.DistributeVertically())

	gotA, _ := d.Layer(a.ID)
	gotB, _ := d.Layer(b.ID)
	gotC, _ := d.Layer(c.ID)
	// Ordered by position, not selection order.
	require.Equal(t, 20.0, gotB.Y)
	require.Equal(t, 160.0, gotC.Y)
	require.Equal(t, 300.0, gotA.Y)
}
