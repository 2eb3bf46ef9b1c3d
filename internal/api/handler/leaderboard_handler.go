package handler

import (
	"net/http"
	"strconv"

	"examquest/internal/api/middleware"
	"examquest/internal/app/service"
	"examquest/internal/common"
	"examquest/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.getLeaderboard)
}

func (h *LeaderboardHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	query := service.LeaderboardQuery{
		Metric:   model.LeaderboardMetric(q.Get("metric")),
		Window:   model.TimeWindow(q.Get("window")),
		ExamType: q.Get("exam_type"),
	}
	// Malformed numeric parameters must fail the request, not silently
	// fall back to defaults.
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid limit: "+raw)
			return
		}
		query.Limit = limit
	}
	if raw := q.Get("qualifying_minimum"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid qualifying_minimum: "+raw)
			return
		}
		query.MinQuizzes = min
	}

	board, err := h.leaderboardService.GetLeaderboard(r.Context(), userID, query)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, board)
}
