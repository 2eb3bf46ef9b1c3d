package api

import (
	"database/sql"
	"net/http"
	"time"

	"examquest/internal/api/handler"
	"examquest/internal/app/service"
	"examquest/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	quizService *service.QuizService,
	achievementService *service.AchievementService,
	avatarService *service.AvatarService,
	leaderboardService *service.LeaderboardService,
	profileService *service.ProfileService,
	db *sql.DB,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// JWT Auth Middleware Setup
	// It will search for a token in "Authorization: Bearer T".
	r.Use(jwtauth.Verifier(security.TokenAuth)) // Verifies token, puts claims in context

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Quiz submission and history (authenticated)
		quizHandler := handler.NewQuizHandler(quizService)
		v1.Route("/quizzes", quizHandler.RegisterRoutes)

		// Achievement progress (authenticated)
		achievementHandler := handler.NewAchievementHandler(achievementService)
		v1.Route("/achievements", achievementHandler.RegisterRoutes)

		// Avatar catalog and selection (authenticated)
		avatarHandler := handler.NewAvatarHandler(avatarService)
		v1.Route("/avatars", avatarHandler.RegisterRoutes)

		// Leaderboards (authenticated; read-only)
		leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
		v1.Route("/leaderboard", leaderboardHandler.RegisterRoutes)

		// Profile (authenticated)
		profileHandler := handler.NewProfileHandler(profileService)
		v1.Route("/profile", profileHandler.RegisterRoutes)

		// Reference-data administration (admin only)
		adminHandler := handler.NewAdminHandler(db)
		v1.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
