package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examquest/internal/api"
	"examquest/internal/app/service"
	"examquest/internal/common/security"
	"examquest/internal/domain/repository"
	"examquest/internal/platform/cache"
	"examquest/internal/platform/config"
	"examquest/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	if err := database.SeedReferenceData(context.Background(), database.DB); err != nil {
		log.Fatalf("Failed to seed reference data: %v", err)
	}
	fmt.Println("Reference data seeded.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	attemptRepo := repository.NewPgAttemptRepository(database.DB)
	achievementRepo := repository.NewPgAchievementRepository(database.DB)
	avatarRepo := repository.NewPgAvatarRepository(database.DB)
	leaderboardRepo := repository.NewPgLeaderboardRepository(database.DB)

	// 6. Initialize Services
	avatarService := service.NewAvatarService(avatarRepo, profileRepo)
	achievementService := service.NewAchievementService(achievementRepo, profileRepo, attemptRepo)
	authService := service.NewAuthService(userRepo, profileRepo, avatarService, database.DB)
	quizService := service.NewQuizService(attemptRepo, profileRepo, achievementService, avatarService, database.DB)
	leaderboardService := service.NewLeaderboardService(
		leaderboardRepo,
		cache.NewRedisStore(cache.RDB),
		time.Duration(config.AppConfig.LeaderboardCacheTTLSeconds)*time.Second,
		config.AppConfig.LeaderboardDefaultLimit,
		config.AppConfig.LeaderboardMaxLimit,
	)
	profileService := service.NewProfileService(profileRepo, userRepo, attemptRepo)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, quizService, achievementService, avatarService, leaderboardService, profileService, database.DB)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
