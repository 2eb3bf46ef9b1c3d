package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examquest/internal/common"
	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"
)

type AvatarService struct {
	avatarRepo  repository.AvatarRepository
	profileRepo repository.ProfileRepository
}

func NewAvatarService(avatarRepo repository.AvatarRepository, profileRepo repository.ProfileRepository) *AvatarService {
	return &AvatarService{avatarRepo: avatarRepo, profileRepo: profileRepo}
}

// CascadeUnlocks consumes the newly-earned achievement list and unlocks
// every avatar whose prerequisite is in it. Unlocks are insert-if-absent,
// so replaying the list is safe.
func (s *AvatarService) CascadeUnlocks(ctx context.Context, userID string, earned []model.EarnedAchievement) ([]model.UnlockedAvatar, error) {
	var unlocked []model.UnlockedAvatar
	now := time.Now().UTC()
	for _, achievement := range earned {
		avatars, err := s.avatarRepo.FindByRequiredAchievement(ctx, achievement.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to find avatars for achievement %s: %w", achievement.ID, err)
		}
		for _, avatar := range avatars {
			inserted, err := s.avatarRepo.Unlock(ctx, nil, userID, avatar.ID, now)
			if err != nil {
				return nil, fmt.Errorf("failed to unlock avatar %s: %w", avatar.Code, err)
			}
			if !inserted {
				continue
			}
			unlocked = append(unlocked, model.UnlockedAvatar{
				ID:       avatar.ID,
				Code:     avatar.Code,
				Name:     avatar.Name,
				ImageURL: avatar.ImageURL,
			})
		}
	}
	return unlocked, nil
}

// UnlockDefaults grants every no-prerequisite avatar inside the signup
// transaction. This is the only place default avatars are unlocked.
func (s *AvatarService) UnlockDefaults(ctx context.Context, tx *sql.Tx, userID string) error {
	defaults, err := s.avatarRepo.ListDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to list default avatars: %w", err)
	}
	now := time.Now().UTC()
	for _, avatar := range defaults {
		if _, err := s.avatarRepo.Unlock(ctx, tx, userID, avatar.ID, now); err != nil {
			return fmt.Errorf("failed to unlock default avatar %s: %w", avatar.Code, err)
		}
	}
	return nil
}

// Catalog lists every avatar definition annotated with the viewer's
// unlock and selection state.
func (s *AvatarService) Catalog(ctx context.Context, userID string) ([]model.AvatarWithState, error) {
	defs, err := s.avatarRepo.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatar definitions: %w", err)
	}
	unlockedSet, err := s.avatarRepo.UnlockedSet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked set: %w", err)
	}
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	catalog := make([]model.AvatarWithState, 0, len(defs))
	for _, def := range defs {
		_, hasUnlock := unlockedSet[def.ID]
		catalog = append(catalog, model.AvatarWithState{
			AvatarDefinition: def,
			Unlocked:         hasUnlock,
			Selected:         profile.SelectedAvatarID != nil && *profile.SelectedAvatarID == def.ID,
		})
	}
	return catalog, nil
}

// Select sets the user's displayed avatar. Only unlocked avatars can be
// selected.
func (s *AvatarService) Select(ctx context.Context, userID, avatarID string) error {
	unlockedSet, err := s.avatarRepo.UnlockedSet(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load unlocked set: %w", err)
	}
	if _, ok := unlockedSet[avatarID]; !ok {
		return fmt.Errorf("avatar %s is not unlocked: %w", avatarID, common.ErrForbidden)
	}
	return s.profileRepo.SetSelectedAvatar(ctx, userID, avatarID)
}
