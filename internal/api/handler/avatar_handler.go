package handler

import (
	"encoding/json"
	"net/http"

	"examquest/internal/api/middleware"
	"examquest/internal/app/service"
	"examquest/internal/common"

	"github.com/go-chi/chi/v5"
)

type AvatarHandler struct {
	avatarService *service.AvatarService
}

func NewAvatarHandler(avatarService *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

func (h *AvatarHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.catalog)
	r.Post("/select", h.selectAvatar)
}

func (h *AvatarHandler) catalog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	catalog, err := h.avatarService.Catalog(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, catalog)
}

type selectAvatarRequest struct {
	AvatarID string `json:"avatar_id"`
}

func (h *AvatarHandler) selectAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req selectAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if req.AvatarID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "avatar_id is required")
		return
	}

	if err := h.avatarService.Select(r.Context(), userID, req.AvatarID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"selected_avatar_id": req.AvatarID})
}
