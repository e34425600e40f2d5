package rendersync

import (
	"encoding/json"
	"testing"

	"imagetext-studio/core"
	"imagetext-studio/document"

	"github.com/stretchr/testify/require"
)

// countingSurface tracks structural churn so tests can assert that a
// reconcile pass without document changes creates and removes nothing.
type countingSurface struct {
	*ShadowSurface
	adds    int
	removes int
}

func newCountingSurface() *countingSurface {
	return &countingSurface{ShadowSurface: NewShadowSurface(core.CanvasSize{Width: 400, Height: 300})}
}

func (c *countingSurface) AddObject(id string, props ObjectProps) {
	c.adds++
	c.ShadowSurface.AddObject(id, props)
}

func (c *countingSurface) RemoveObject(id string) {
	c.removes++
	c.ShadowSurface.RemoveObject(id)
}

func TestReconcileAddsMissingObjects(t *testing.T) {
	doc := document.New(core.CanvasSize{Width: 400, Height: 300})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	a := doc.AddLayer("a", 10, 20)
	b := doc.AddLayer("b", 30, 40)
	syncer.Reconcile()

	require.Equal(t, []string{a.ID, b.ID}, surface.ObjectIDs())
	props, ok := surface.Object(a.ID)
	require.True(t, ok)
	require.Equal(t, "a", props.Text)
	require.Equal(t, 10.0, props.X)
	require.Equal(t, 1, surface.RenderCount(), "one repaint per pass")
}

func TestReconcileIsIdempotent(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	doc.AddLayer("a", 0, 0)
	doc.AddLayer("b", 0, 0)
	syncer.Reconcile()
	require.Equal(t, 2, surface.adds)

	syncer.Reconcile()
	require.Equal(t, 2, surface.adds, "no objects created on an unchanged pass")
	require.Equal(t, 0, surface.removes)
	require.Equal(t, 2, surface.RenderCount())
}

func TestReconcileRemovesDeletedLayers(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	a := doc.AddLayer("a", 0, 0)
	b := doc.AddLayer("b", 0, 0)
	syncer.Reconcile()

	doc.RemoveLayer(a.ID)
	syncer.Reconcile()

	require.Equal(t, []string{b.ID}, surface.ObjectIDs())
	require.Equal(t, 1, surface.removes)
}

func TestReconcileOverridesSurfacePosition(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	a := doc.AddLayer("a", 100, 100)
	syncer.Reconcile()

	// Simulate an in-progress drag that only the surface knows about.
	props, _ := surface.Object(a.ID)
	props.X, props.Y = 500, 500
	surface.SetObjectProps(a.ID, props)

	syncer.Reconcile()
	props, _ = surface.Object(a.ID)
	require.Equal(t, 100.0, props.X, "layer position wins over surface position")
	require.Equal(t, 100.0, props.Y)
}

func TestReconcileRestacksToDocumentOrder(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	a := doc.AddLayer("a", 0, 0)
	b := doc.AddLayer("b", 0, 0)
	c := doc.AddLayer("c", 0, 0)
	syncer.Reconcile()
	require.Equal(t, []string{a.ID, b.ID, c.ID}, surface.ObjectIDs())

	require.True(t, doc.ReorderLayer(c.ID, 0))
	syncer.Reconcile()

	require.Equal(t, doc.LayerIDs(), surface.ObjectIDs())
	require.Equal(t, []string{c.ID, a.ID, b.ID}, surface.ObjectIDs())
	require.Equal(t, 0, surface.removes, "re-stacking is not remove-and-recreate")
}

func TestSyncSelection(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()
	syncer := NewSyncer(doc, surface, nil)

	a := doc.AddLayer("a", 0, 0)
	b := doc.AddLayer("b", 0, 0)
	syncer.Reconcile()

	doc.Select(a.ID)
	syncer.SyncSelection()
	require.Equal(t, []string{a.ID}, surface.Active())

	doc.Select(a.ID, b.ID)
	syncer.SyncSelection()
	require.Equal(t, []string{a.ID, b.ID}, surface.Active(), "several ids form a composite active selection")

	doc.ClearSelection()
	syncer.SyncSelection()
	require.Empty(t, surface.Active())
}

func TestObjectMovedUpdatesLayerAndRecordsEdit(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()

	var edits []string
	syncer := NewSyncer(doc, surface, func(description string) {
		edits = append(edits, description)
	})

	a := doc.AddLayer("a", 100, 100)
	syncer.Reconcile()

	syncer.ObjectMoved(a.ID, 150, 120)
	layer, _ := doc.Layer(a.ID)
	require.Equal(t, 150.0, layer.X)
	require.Equal(t, 120.0, layer.Y)
	require.Equal(t, []string{"Move text"}, edits)

	// Unknown ids are ignored.
	syncer.ObjectMoved("ghost", 1, 2)
	require.Len(t, edits, 1)
}

func TestObjectModifiedAppliesTransform(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()

	var edits []string
	syncer := NewSyncer(doc, surface, func(description string) {
		edits = append(edits, description)
	})

	a := doc.AddLayer("a", 0, 0)
	syncer.ObjectModified(a.ID, 50, 60, 2, 1.5, 45)

	layer, _ := doc.Layer(a.ID)
	require.Equal(t, 50.0, layer.X)
	require.Equal(t, 2.0, layer.ScaleX)
	require.Equal(t, 1.5, layer.ScaleY)
	require.Equal(t, 45.0, layer.Angle)
	require.Equal(t, []string{"Transform text"}, edits)
}

func TestTextEventsRecordHistoryOnlyOnFinish(t *testing.T) {
	doc := document.New(core.CanvasSize{})
	surface := newCountingSurface()

	var edits []string
	syncer := NewSyncer(doc, surface, func(description string) {
		edits = append(edits, description)
	})

	a := doc.AddLayer("draft", 0, 0)

	syncer.TextChanged(a.ID, "d")
	syncer.TextChanged(a.ID, "do")
	syncer.TextChanged(a.ID, "done")
	require.Empty(t, edits, "in-progress keystrokes never hit history")

	layer, _ := doc.Layer(a.ID)
	require.Equal(t, "done", layer.Text)

	syncer.TextEditingFinished(a.ID, "done")
	require.Equal(t, []string{"Edit text"}, edits)
}

func TestSerializeRestoreReconcileRoundTrip(t *testing.T) {
	doc := document.New(core.CanvasSize{Width: 400, Height: 300})
	doc.SetBackground(&core.BackgroundImage{
		URL:        "https://example.com/bg.jpg",
		Dimensions: core.ImageDimensions{Width: 400, Height: 300},
	})
	a := doc.AddLayer("one", 10, 20)
	fill := "#ff00ff"
	angle := 15.0
	doc.UpdateLayer(a.ID, document.LayerPatch{Fill: &fill, Angle: &angle})
	b := doc.AddLayer("two", 30, 40)

	raw, err := json.Marshal(doc.Snapshot())
	require.NoError(t, err)

	var snap core.DocumentSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored := document.New(core.CanvasSize{})
	restored.Restore(snap)

	surface := newCountingSurface()
	NewSyncer(restored, surface, nil).Reconcile()

	require.Equal(t, []string{a.ID, b.ID}, surface.ObjectIDs(), "ids survive the round trip")
	props, _ := surface.Object(a.ID)
	require.Equal(t, "#ff00ff", props.Fill)
	require.Equal(t, 15.0, props.Angle)
	require.Equal(t, 10.0, props.X)
	require.Equal(t, 20.0, props.Y)
}
