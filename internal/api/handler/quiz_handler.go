package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"examquest/internal/api/middleware"
	"examquest/internal/app/service"
	"examquest/internal/common"
	"examquest/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All quiz routes require auth
	r.Post("/submit", h.submitQuiz)
	r.Get("/attempts", h.listAttempts)
	r.Get("/attempts/{attemptID}", h.getAttempt)
}

func (h *QuizHandler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.quizService.SubmitQuiz(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}

type attemptListResponse struct {
	Attempts []model.QuizAttempt `json:"attempts"`
	Total    int                 `json:"total"`
}

func (h *QuizHandler) listAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	attempts, total, err := h.quizService.ListAttempts(r.Context(), userID, limit, offset)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attemptListResponse{Attempts: attempts, Total: total})
}

type attemptDetailResponse struct {
	Attempt *model.QuizAttempt   `json:"attempt"`
	Answers []model.AnswerRecord `json:"answers"`
}

func (h *QuizHandler) getAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	attemptID := chi.URLParam(r, "attemptID")
	attempt, answers, err := h.quizService.GetAttempt(r.Context(), userID, attemptID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attemptDetailResponse{Attempt: attempt, Answers: answers})
}
