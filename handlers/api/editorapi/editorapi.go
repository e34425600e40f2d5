package editorapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"imagetext-studio/core"
	"imagetext-studio/document"
	"imagetext-studio/editor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	addLayerRequest struct {
		Text string  `json:"text"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}

	// layerPatchRequest mirrors document.LayerPatch with JSON names; nil
	// fields are left untouched. Continuous marks a slider-drag style edit
	// whose history entry should be debounced.
	layerPatchRequest struct {
		Text        *string      `json:"text,omitempty"`
		FontFamily  *string      `json:"fontFamily,omitempty"`
		FontSize    *float64     `json:"fontSize,omitempty"`
		FontWeight  *string      `json:"fontWeight,omitempty"`
		Fill        *string      `json:"fill,omitempty"`
		Opacity     *float64     `json:"opacity,omitempty"`
		Align       *string      `json:"align,omitempty"`
		X           *float64     `json:"x,omitempty"`
		Y           *float64     `json:"y,omitempty"`
		Width       *float64     `json:"width,omitempty"`
		Height      *float64     `json:"height,omitempty"`
		Angle       *float64     `json:"angle,omitempty"`
		ScaleX      *float64     `json:"scaleX,omitempty"`
		ScaleY      *float64     `json:"scaleY,omitempty"`
		LineHeight  *float64     `json:"lineHeight,omitempty"`
		CharSpacing *float64     `json:"charSpacing,omitempty"`
		Shadow      *core.Shadow `json:"shadow,omitempty"`
		ClearShadow bool         `json:"clearShadow,omitempty"`
		Locked      *bool        `json:"locked,omitempty"`
		Continuous  bool         `json:"continuous,omitempty"`
		Description string       `json:"description,omitempty"`
	}

	selectionRequest struct {
		IDs []string `json:"ids"`
	}

	reorderRequest struct {
		Index int `json:"index"`
	}

	nudgeRequest struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}

	distributeRequest struct {
		Axis string `json:"axis"` // "horizontal" | "vertical"
	}
)

func (p layerPatchRequest) toPatch() document.LayerPatch {
	return document.LayerPatch{
		Text:        p.Text,
		FontFamily:  p.FontFamily,
		FontSize:    p.FontSize,
		FontWeight:  p.FontWeight,
		Fill:        p.Fill,
		Opacity:     p.Opacity,
		Align:       p.Align,
		X:           p.X,
		Y:           p.Y,
		Width:       p.Width,
		Height:      p.Height,
		Angle:       p.Angle,
		ScaleX:      p.ScaleX,
		ScaleY:      p.ScaleY,
		LineHeight:  p.LineHeight,
		CharSpacing: p.CharSpacing,
		Shadow:      p.Shadow,
		ClearShadow: p.ClearShadow,
		Locked:      p.Locked,
	}
}

func session(manager *editor.Manager, r *http.Request) *editor.Session {
	return manager.Get(chi.URLParam(r, "id"))
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
		return false
	}
	return true
}

// HandleState returns the session's current state.
func HandleState(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, session(manager, r).State())
	}
}

// HandleSetBackground replaces the background image; the canvas adopts the
// image's native dimensions.
func HandleSetBackground(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bg core.BackgroundImage
		if !decode(w, r, &bg) {
			return
		}
		if bg.URL == "" || bg.Dimensions.Width <= 0 || bg.Dimensions.Height <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Background image needs a url and positive dimensions"})
			return
		}
		if bg.Dimensions.AspectRatio == 0 {
			bg.Dimensions.AspectRatio = bg.Dimensions.Width / bg.Dimensions.Height
		}

		sess := session(manager, r)
		sess.SetBackground(bg)
		render.JSON(w, r, sess.State())
	}
}

// HandleAddLayer appends a text layer.
func HandleAddLayer(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addLayerRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Text == "" {
			req.Text = "New text"
		}

		layer := session(manager, r).AddLayer(req.Text, req.X, req.Y)
		render.JSON(w, r, layer)
	}
}

// HandleUpdateLayer applies a partial layer update.
func HandleUpdateLayer(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req layerPatchRequest
		if !decode(w, r, &req) {
			return
		}

		layerID := chi.URLParam(r, "layerId")
		description := req.Description
		if description == "" {
			description = "Edit text properties"
		}

		sess := session(manager, r)
		var ok bool
		if req.Continuous {
			ok = sess.UpdateLayerContinuous(layerID, req.toPatch(), description)
		} else {
			ok = sess.UpdateLayer(layerID, req.toPatch(), description)
		}
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Layer not found"})
			return
		}
		render.JSON(w, r, sess.State())
	}
}

// HandleRemoveLayer deletes a layer.
func HandleRemoveLayer(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(manager, r)
		if !sess.RemoveLayer(chi.URLParam(r, "layerId")) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Layer not found"})
			return
		}
		render.JSON(w, r, sess.State())
	}
}

// HandleReorderLayer moves a layer to a new position in the paint order.
func HandleReorderLayer(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if !decode(w, r, &req) {
			return
		}
		sess := session(manager, r)
		if !sess.ReorderLayer(chi.URLParam(r, "layerId"), req.Index) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Layer not found"})
			return
		}
		render.JSON(w, r, sess.State())
	}
}

// HandleSelect replaces the selection.
func HandleSelect(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectionRequest
		if !decode(w, r, &req) {
			return
		}
		sess := session(manager, r)
		sess.Select(req.IDs...)
		render.JSON(w, r, sess.State())
	}
}

// HandleNudge moves the selection by a delta.
func HandleNudge(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nudgeRequest
		if !decode(w, r, &req) {
			return
		}
		sess := session(manager, r)
		sess.Nudge(req.DX, req.DY)
		render.JSON(w, r, sess.State())
	}
}

// HandleDistribute spaces the selected layers evenly along one axis.
func HandleDistribute(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req distributeRequest
		if !decode(w, r, &req) {
			return
		}

		sess := session(manager, r)
		var ok bool
		switch req.Axis {
		case "vertical":
			ok = sess.DistributeVertically()
		case "horizontal", "":
			ok = sess.DistributeHorizontally()
		default:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": fmt.Sprintf("Unknown axis %q", req.Axis)})
			return
		}
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Distribution needs at least three selected layers"})
			return
		}
		render.JSON(w, r, sess.State())
	}
}

// HandleUndo steps history back.
func HandleUndo(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(manager, r)
		sess.Undo()
		render.JSON(w, r, sess.State())
	}
}

// HandleRedo steps history forward.
func HandleRedo(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(manager, r)
		sess.Redo()
		render.JSON(w, r, sess.State())
	}
}

// HandleReset clears the session and its autosave blob.
func HandleReset(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session(manager, r)
		sess.Reset(r.Context())
		render.JSON(w, r, sess.State())
	}
}

// HandleExport flattens the composition and serves the PNG as a download.
func HandleExport(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artifact, err := session(manager, r).Export()
		if err != nil {
			if errors.Is(err, editor.ErrNoCanvas) || errors.Is(err, editor.ErrNoBackground) {
				render.Status(r, http.StatusPreconditionFailed)
				render.JSON(w, r, map[string]string{"error": err.Error()})
				return
			}
			logrus.WithError(err).Error("Failed to export composition")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Export failed"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
		w.Write(artifact.Data)
	}
}
