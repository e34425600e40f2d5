package document

import (
	"imagetext-studio/core"

	"github.com/oklog/ulid/v2"
)

// Defaults applied to newly added layers.
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 32
	DefaultFontWeight = "normal"
	DefaultFill       = "#000000"
	DefaultAlign      = "left"
	DefaultLineHeight = 1.16
	DefaultWidth      = 200
	DefaultHeight     = 40
)

// Document is the authoritative in-memory state of the current composition:
// background image, ordered text layers (index = paint order), canvas size
// and selection. All mutation goes through its methods. It is not safe for
// concurrent use; the owning session serializes access.
type Document struct {
	background *core.BackgroundImage
	layers     []core.TextLayer
	canvas     core.CanvasSize
	selection  []string
}

// New creates an empty document with the given canvas size.
func New(canvas core.CanvasSize) *Document {
	return &Document{canvas: canvas}
}

// LayerPatch is a partial update to a text layer. Nil fields are left
// untouched. ClearShadow removes the shadow regardless of the Shadow field.
type LayerPatch struct {
	Text        *string
	FontFamily  *string
	FontSize    *float64
	FontWeight  *string
	Fill        *string
	Opacity     *float64
	Align       *string
	X           *float64
	Y           *float64
	Width       *float64
	Height      *float64
	Angle       *float64
	ScaleX      *float64
	ScaleY      *float64
	LineHeight  *float64
	CharSpacing *float64
	Shadow      *core.Shadow
	ClearShadow bool
	Locked      *bool
}

// AddLayer appends a new text layer on top of the paint order and returns a
// copy of it. The layer id is generated and stable for the layer's lifetime.
func (d *Document) AddLayer(text string, x, y float64) core.TextLayer {
	layer := core.TextLayer{
		ID:         ulid.Make().String(),
		Text:       text,
		FontFamily: DefaultFontFamily,
		FontSize:   DefaultFontSize,
		FontWeight: DefaultFontWeight,
		Fill:       DefaultFill,
		Opacity:    1,
		Align:      DefaultAlign,
		X:          x,
		Y:          y,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		ScaleX:     1,
		ScaleY:     1,
		LineHeight: DefaultLineHeight,
	}
	d.layers = append(d.layers, layer)
	return layer
}

// UpdateLayer applies a partial update to the layer with the given id.
// Returns false if no such layer exists.
func (d *Document) UpdateLayer(id string, patch LayerPatch) bool {
	idx := d.indexOf(id)
	if idx < 0 {
		return false
	}
	l := &d.layers[idx]
	if patch.Text != nil {
		l.Text = *patch.Text
	}
	if patch.FontFamily != nil {
		l.FontFamily = *patch.FontFamily
	}
	if patch.FontSize != nil {
		l.FontSize = *patch.FontSize
	}
	if patch.FontWeight != nil {
		l.FontWeight = *patch.FontWeight
	}
	if patch.Fill != nil {
		l.Fill = *patch.Fill
	}
	if patch.Opacity != nil {
		l.Opacity = clamp01(*patch.Opacity)
	}
	if patch.Align != nil {
		l.Align = *patch.Align
	}
	if patch.X != nil {
		l.X = *patch.X
	}
	if patch.Y != nil {
		l.Y = *patch.Y
	}
	if patch.Width != nil {
		l.Width = *patch.Width
	}
	if patch.Height != nil {
		l.Height = *patch.Height
	}
	if patch.Angle != nil {
		l.Angle = *patch.Angle
	}
	if patch.ScaleX != nil {
		l.ScaleX = *patch.ScaleX
	}
	if patch.ScaleY != nil {
		l.ScaleY = *patch.ScaleY
	}
	if patch.LineHeight != nil {
		l.LineHeight = *patch.LineHeight
	}
	if patch.CharSpacing != nil {
		l.CharSpacing = *patch.CharSpacing
	}
	if patch.ClearShadow {
		l.Shadow = nil
	} else if patch.Shadow != nil {
		shadow := *patch.Shadow
		l.Shadow = &shadow
	}
	if patch.Locked != nil {
		l.Locked = *patch.Locked
	}
	return true
}

// RemoveLayer deletes the layer with the given id and prunes it from the
// selection. Returns false if no such layer exists.
func (d *Document) RemoveLayer(id string) bool {
	idx := d.indexOf(id)
	if idx < 0 {
		return false
	}
	d.layers = append(d.layers[:idx], d.layers[idx+1:]...)
	d.pruneSelection()
	return true
}

// ReorderLayer moves the layer with the given id to the target paint-order
// index, clamped to the valid range. Returns false if no such layer exists.
func (d *Document) ReorderLayer(id string, index int) bool {
	from := d.indexOf(id)
	if from < 0 {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(d.layers)-1 {
		index = len(d.layers) - 1
	}
	layer := d.layers[from]
	d.layers = append(d.layers[:from], d.layers[from+1:]...)
	rest := append([]core.TextLayer{}, d.layers[index:]...)
	d.layers = append(append(d.layers[:index], layer), rest...)
	return true
}

// Layer returns a copy of the layer with the given id.
func (d *Document) Layer(id string) (core.TextLayer, bool) {
	idx := d.indexOf(id)
	if idx < 0 {
		return core.TextLayer{}, false
	}
	return d.layers[idx].Clone(), true
}

// Layers returns a copy of the layer sequence in paint order.
func (d *Document) Layers() []core.TextLayer {
	out := make([]core.TextLayer, len(d.layers))
	for i, l := range d.layers {
		out[i] = l.Clone()
	}
	return out
}

// LayerIDs returns the ids of all layers in paint order.
func (d *Document) LayerIDs() []string {
	ids := make([]string, len(d.layers))
	for i, l := range d.layers {
		ids[i] = l.ID
	}
	return ids
}

// SetBackground replaces the background image. The previous reference is
// discarded; passing nil clears the background.
func (d *Document) SetBackground(bg *core.BackgroundImage) {
	if bg == nil {
		d.background = nil
		return
	}
	img := *bg
	d.background = &img
}

// Background returns a copy of the current background image, or nil.
func (d *Document) Background() *core.BackgroundImage {
	if d.background == nil {
		return nil
	}
	img := *d.background
	return &img
}

// SetCanvasSize updates the editing canvas dimensions.
func (d *Document) SetCanvasSize(size core.CanvasSize) {
	d.canvas = size
}

// CanvasSize returns the editing canvas dimensions.
func (d *Document) CanvasSize() core.CanvasSize {
	return d.canvas
}

// Select replaces the selection with the given ids, keeping only ids that
// reference existing layers.
func (d *Document) Select(ids ...string) {
	d.selection = append([]string{}, ids...)
	d.pruneSelection()
}

// Selection returns the currently selected layer ids.
func (d *Document) Selection() []string {
	return append([]string{}, d.selection...)
}

// ClearSelection empties the selection.
func (d *Document) ClearSelection() {
	d.selection = nil
}

// NudgeSelection moves every selected, unlocked layer by the given delta.
// Document position is authoritative; no movement clamp is applied.
func (d *Document) NudgeSelection(dx, dy float64) {
	for _, id := range d.selection {
		idx := d.indexOf(id)
		if idx < 0 || d.layers[idx].Locked {
			continue
		}
		d.layers[idx].X += dx
		d.layers[idx].Y += dy
	}
}

// Snapshot captures a deep copy of {background, layers, canvas}. Selection
// is excluded from snapshots.
func (d *Document) Snapshot() core.DocumentSnapshot {
	snap := core.DocumentSnapshot{Canvas: d.canvas}
	if d.background != nil {
		bg := *d.background
		snap.Background = &bg
	}
	snap.Layers = make([]core.TextLayer, len(d.layers))
	for i, l := range d.layers {
		snap.Layers[i] = l.Clone()
	}
	return snap
}

// Restore replaces the whole document state from a snapshot. The selection
// is pruned to ids that still exist.
func (d *Document) Restore(snap core.DocumentSnapshot) {
	snap = snap.Clone()
	d.background = snap.Background
	d.layers = snap.Layers
	d.canvas = snap.Canvas
	d.pruneSelection()
}

// Reset returns the document to its initial empty state.
func (d *Document) Reset() {
	d.background = nil
	d.layers = nil
	d.selection = nil
	d.canvas = core.CanvasSize{}
}

func (d *Document) indexOf(id string) int {
	for i, l := range d.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) pruneSelection() {
	kept := d.selection[:0]
	for _, id := range d.selection {
		if d.indexOf(id) >= 0 {
			kept = append(kept, id)
		}
	}
	d.selection = kept
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
