package fontsapi

import (
	"net/http"

	"imagetext-studio/fonts"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type loadRequest struct {
	Family string `json:"family"`
}

// HandleList returns the font catalog sorted by popularity.
func HandleList(catalog *fonts.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		families, err := catalog.ListByPopularity(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to fetch font catalog")
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch font catalog"})
			return
		}
		render.JSON(w, r, families)
	}
}

// HandleLoad kicks off a fire-and-forget family load. The client polls the
// catalog or simply retries rendering; a superseded load lands late, which
// is accepted.
func HandleLoad(loader *fonts.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil || req.Family == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Font family is required"})
			return
		}

		loader.Load(req.Family, func(err error) {
			if err != nil {
				logrus.WithError(err).WithField("family", req.Family).Warn("Font load completed with error")
			}
		})

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, map[string]any{
			"family":  req.Family,
			"loading": true,
		})
	}
}
