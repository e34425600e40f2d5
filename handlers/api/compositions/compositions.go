package compositions

import (
	"encoding/json"
	"io"
	"net/http"

	"imagetext-studio/core"
	"imagetext-studio/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleList returns metadata for the authenticated user's compositions.
func HandleList(store core.CompositionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		comps, err := store.List(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to list compositions")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list compositions"})
			return
		}

		// Return an empty slice instead of null when the user has nothing.
		if comps == nil {
			comps = []*core.Composition{}
		}

		render.JSON(w, r, comps)
	}
}

// HandleGet returns the full serialized document of one composition.
func HandleGet(store core.CompositionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Composition id is required"})
			return
		}

		comp, err := store.Get(r.Context(), claims.Subject, id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
				"id":     id,
			}).Warn("Failed to get composition")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Composition not found"})
			return
		}

		// The stored document is returned as raw bytes.
		w.Header().Set("Content-Type", "application/json")
		w.Write(comp.Data)
	}
}

// HandleSave creates or updates a composition from the request body. The
// body is the serialized document; name and thumbnail ride along inside it.
func HandleSave(store core.CompositionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Composition id is required"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"id":    id,
			}).Error("Failed to read request body")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		var meta struct {
			Name      string `json:"name"`
			Thumbnail string `json:"thumbnail"`
		}
		name := id // Default to the id when the body carries no name.
		var thumbnail string
		if err := json.Unmarshal(body, &meta); err == nil {
			if meta.Name != "" {
				name = meta.Name
			}
			thumbnail = meta.Thumbnail
		}

		comp := &core.Composition{
			ID:        id,
			UserID:    claims.Subject,
			Name:      name,
			Thumbnail: thumbnail,
			Data:      body,
		}

		if err := store.Save(r.Context(), comp); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
				"id":     id,
			}).Error("Failed to save composition")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save composition"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}

// HandleDelete removes a composition.
func HandleDelete(store core.CompositionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Composition id is required"})
			return
		}

		if err := store.Delete(r.Context(), claims.Subject, id); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
				"id":     id,
			}).Error("Failed to delete composition")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete composition"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}
