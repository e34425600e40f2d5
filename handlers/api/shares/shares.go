package shares

import (
	"errors"
	"io"
	"net/http"

	"imagetext-studio/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// maxShareSize bounds anonymous uploads.
const maxShareSize = 5 << 20

type createResponse struct {
	ID string `json:"id"`
}

// HandleCreate stores an anonymous composition blob and returns its id.
func HandleCreate(store core.ShareStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxShareSize+1))
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		if len(body) == 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Request body is empty"})
			return
		}
		if len(body) > maxShareSize {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, map[string]string{"error": "Shared composition is too large"})
			return
		}

		share := &core.Share{}
		share.Data.Write(body)

		id, err := store.Create(r.Context(), share)
		if err != nil {
			logrus.WithError(err).Error("Failed to create share")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create share"})
			return
		}

		render.JSON(w, r, createResponse{ID: id})
	}
}

// HandleGet returns a shared composition blob by id.
func HandleGet(store core.ShareStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Share id is required"})
			return
		}

		share, err := store.FindID(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrShareNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Share not found"})
				return
			}
			logrus.WithError(err).WithField("share_id", id).Error("Failed to get share")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get share"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(share.Data.Bytes())
	}
}
