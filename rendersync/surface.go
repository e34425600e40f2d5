// Package rendersync keeps an external drawing surface's object graph
// aligned with the document's layer sequence, and relays surface-driven
// edits back into the document.
package rendersync

import "imagetext-studio/core"

// ObjectProps is the full set of style and geometry properties pushed onto a
// surface object during reconciliation.
type ObjectProps struct {
	Text        string
	FontFamily  string
	FontSize    float64
	FontWeight  string
	Fill        string
	Opacity     float64
	Align       string
	X           float64
	Y           float64
	Width       float64
	Height      float64
	Angle       float64
	ScaleX      float64
	ScaleY      float64
	LineHeight  float64
	CharSpacing float64
	Shadow      *core.Shadow
	Locked      bool
}

// Surface is the external drawing surface collaborator. Objects are
// addressed by the layer id they are tagged with; the association lives in
// the surface implementation's own table, never in dynamically attached
// fields on the objects themselves.
type Surface interface {
	// ObjectIDs returns the tagged layer ids of all objects currently on the
	// surface, in paint order.
	ObjectIDs() []string

	// AddObject creates a new surface primitive tagged with the layer id.
	AddObject(id string, props ObjectProps)

	// SetObjectProps pushes properties onto an existing object. Unknown ids
	// are ignored.
	SetObjectProps(id string, props ObjectProps)

	// RemoveObject removes the object tagged with the layer id.
	RemoveObject(id string)

	// SetOrder re-stacks objects into the given paint order. Ids without a
	// matching object are ignored.
	SetOrder(ids []string)

	// SetSize resizes the surface to match the editing canvas.
	SetSize(size core.CanvasSize)

	// SetActive reconciles the surface's active selection: an empty list
	// clears it, one id activates that object, several ids form a composite
	// active selection.
	SetActive(ids []string)

	// Render repaints the surface once. Reconciliation batches all changes
	// behind a single Render call.
	Render()

	// Export serializes the surface to a PNG at the given uniform resolution
	// multiplier.
	Export(multiplier float64) ([]byte, error)
}

// PropsFromLayer maps a document layer onto surface object properties.
func PropsFromLayer(l core.TextLayer) ObjectProps {
	props := ObjectProps{
		Text:        l.Text,
		FontFamily:  l.FontFamily,
		FontSize:    l.FontSize,
		FontWeight:  l.FontWeight,
		Fill:        l.Fill,
		Opacity:     l.Opacity,
		Align:       l.Align,
		X:           l.X,
		Y:           l.Y,
		Width:       l.Width,
		Height:      l.Height,
		Angle:       l.Angle,
		ScaleX:      l.ScaleX,
		ScaleY:      l.ScaleY,
		LineHeight:  l.LineHeight,
		CharSpacing: l.CharSpacing,
		Locked:      l.Locked,
	}
	if l.Shadow != nil {
		shadow := *l.Shadow
		props.Shadow = &shadow
	}
	return props
}
