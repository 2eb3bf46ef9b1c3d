package service

import (
	"context"
	"fmt"

	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	attemptRepo repository.AttemptRepository
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	attemptRepo repository.AttemptRepository,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
	}
}

type ProfileView struct {
	Username string              `json:"username"`
	Profile  *model.UserProfile  `json:"profile"`
	Stats    *model.AttemptStats `json:"stats"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	stats, err := s.attemptRepo.StatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt stats: %w", err)
	}
	stats.Level = profile.Level
	return &ProfileView{
		Username: user.Username,
		Profile:  profile,
		Stats:    stats,
	}, nil
}
