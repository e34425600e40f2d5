package rendersync

import (
	"imagetext-studio/document"

	"github.com/sirupsen/logrus"
)

// Syncer reconciles a document against a drawing surface. Forward sync
// (Reconcile, SyncSelection) is document-driven: the document is the single
// source of truth, including for position, so an in-progress drag on the
// surface is overridden on every pass. Reverse sync happens only through the
// explicit event methods, which fire once an interactive gesture completes.
type Syncer struct {
	doc     *document.Document
	surface Surface

	// onEdit is invoked after a reverse-sync mutation that should be
	// recorded in history, with a human-readable description.
	onEdit func(description string)
}

// NewSyncer wires a document to a surface. onEdit may be nil.
func NewSyncer(doc *document.Document, surface Surface, onEdit func(description string)) *Syncer {
	return &Syncer{doc: doc, surface: surface, onEdit: onEdit}
}

// Reconcile aligns the surface object graph with the document layer list:
// surface objects whose tagged id left the document are removed, missing
// layers get fresh objects, and every remaining layer's properties are
// pushed unconditionally. A single Render call is issued at the end so the
// pass repaints once, not per object. Running Reconcile twice without a
// document change creates and removes nothing on the second pass.
func (s *Syncer) Reconcile() {
	docIDs := make(map[string]bool)
	for _, id := range s.doc.LayerIDs() {
		docIDs[id] = true
	}

	removed := 0
	for _, id := range s.surface.ObjectIDs() {
		if !docIDs[id] {
			s.surface.RemoveObject(id)
			removed++
		}
	}

	surfaceIDs := make(map[string]bool)
	for _, id := range s.surface.ObjectIDs() {
		surfaceIDs[id] = true
	}

	added := 0
	for _, layer := range s.doc.Layers() {
		props := PropsFromLayer(layer)
		if surfaceIDs[layer.ID] {
			s.surface.SetObjectProps(layer.ID, props)
		} else {
			s.surface.AddObject(layer.ID, props)
			added++
		}
	}

	// Stacking follows the layer sequence, so a reorder lands on the
	// surface the same as any other document change.
	s.surface.SetOrder(s.doc.LayerIDs())
	s.surface.Render()

	if added > 0 || removed > 0 {
		logrus.WithFields(logrus.Fields{
			"added":   added,
			"removed": removed,
		}).Debug("Surface reconciled")
	}
}

// SyncSelection pushes the document selection onto the surface as its
// active-object set.
func (s *Syncer) SyncSelection() {
	s.surface.SetActive(s.doc.Selection())
}

// ObjectMoved handles a completed surface drag: the new position is applied
// to the matching layer and recorded in history.
func (s *Syncer) ObjectMoved(id string, x, y float64) {
	if !s.doc.UpdateLayer(id, document.LayerPatch{X: &x, Y: &y}) {
		logrus.WithField("layer_id", id).Warn("Moved surface object has no matching layer")
		return
	}
	s.edit("Move text")
}

// ObjectModified handles a completed transform gesture: position, scale and
// rotation are applied to the matching layer and recorded in history.
func (s *Syncer) ObjectModified(id string, x, y, scaleX, scaleY, angle float64) {
	patch := document.LayerPatch{
		X:      &x,
		Y:      &y,
		ScaleX: &scaleX,
		ScaleY: &scaleY,
		Angle:  &angle,
	}
	if !s.doc.UpdateLayer(id, patch) {
		logrus.WithField("layer_id", id).Warn("Modified surface object has no matching layer")
		return
	}
	s.edit("Transform text")
}

// TextChanged handles an in-progress inline edit. Only the content is
// updated; no history entry is recorded, so keystrokes do not flood history.
func (s *Syncer) TextChanged(id, text string) {
	s.doc.UpdateLayer(id, document.LayerPatch{Text: &text})
}

// TextEditingFinished handles the end of an inline edit, recording the final
// content in history once.
func (s *Syncer) TextEditingFinished(id, text string) {
	if !s.doc.UpdateLayer(id, document.LayerPatch{Text: &text}) {
		return
	}
	s.edit("Edit text")
}

func (s *Syncer) edit(description string) {
	if s.onEdit != nil {
		s.onEdit(description)
	}
}
