package handler

import (
	"database/sql"
	"net/http"

	"examquest/internal/api/middleware"
	"examquest/internal/common"
	"examquest/internal/platform/database"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	db *sql.DB
}

func NewAdminHandler(db *sql.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/reseed", h.reseed)
}

// reseed re-runs the reference-data inserts. They are conflict-free,
// so this only adds definitions introduced since the last deploy.
func (h *AdminHandler) reseed(w http.ResponseWriter, r *http.Request) {
	if err := database.SeedReferenceData(r.Context(), h.db); err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Reseed failed: "+err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "reference data seeded"})
}
