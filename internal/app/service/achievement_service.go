package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"
)

type AchievementService struct {
	achievementRepo repository.AchievementRepository
	profileRepo     repository.ProfileRepository
	attemptRepo     repository.AttemptRepository
}

func NewAchievementService(
	achievementRepo repository.AchievementRepository,
	profileRepo repository.ProfileRepository,
	attemptRepo repository.AttemptRepository,
) *AchievementService {
	return &AchievementService{
		achievementRepo: achievementRepo,
		profileRepo:     profileRepo,
		attemptRepo:     attemptRepo,
	}
}

// currentValue returns the stat a definition's criterion compares
// against its threshold. Unknown criteria types are an error so the
// evaluator can skip just that definition.
func currentValue(def model.AchievementDefinition, stats *model.AttemptStats) (int, error) {
	switch def.CriteriaType {
	case model.CriteriaQuizzesCompleted:
		return stats.TotalQuizzes, nil
	case model.CriteriaPerfectQuizCount:
		return stats.PerfectQuizzes, nil
	case model.CriteriaHighScoreQuizCount:
		return stats.HighScoreQuizzes, nil
	case model.CriteriaLifetimeCorrectAnswers:
		return stats.LifetimeCorrectAnswers, nil
	case model.CriteriaLevelReached:
		return stats.Level, nil
	case model.CriteriaQuizzesInOneExamType:
		if def.ExamType != nil {
			return stats.QuizzesByExamType[*def.ExamType], nil
		}
		best := 0
		for _, count := range stats.QuizzesByExamType {
			if count > best {
				best = count
			}
		}
		return best, nil
	case model.CriteriaQuizzesAcrossExamTypes:
		perTypeMin := def.PerTypeMinimum
		if perTypeMin <= 0 {
			perTypeMin = 1
		}
		qualifying := 0
		for _, count := range stats.QuizzesByExamType {
			if count >= perTypeMin {
				qualifying++
			}
		}
		return qualifying, nil
	}
	return 0, fmt.Errorf("unknown criteria type %q on achievement %s", def.CriteriaType, def.ID)
}

// Evaluate walks all definitions in ascending id order and awards every
// one the user now qualifies for. Already-earned achievements are
// skipped via a preloaded membership set, so re-running on an unchanged
// snapshot is a no-op. A malformed definition is logged and skipped; it
// never aborts the rest of the batch. Returns the newly-earned
// descriptors and the total bonus XP applied.
func (s *AchievementService) Evaluate(ctx context.Context, userID, examType string, stats *model.AttemptStats) ([]model.EarnedAchievement, int, error) {
	defs, err := s.achievementRepo.ListDefinitions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list achievement definitions: %w", err)
	}
	earned, err := s.achievementRepo.EarnedSet(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load earned set: %w", err)
	}

	var newly []model.EarnedAchievement
	totalBonus := 0
	now := time.Now().UTC()

	for _, def := range defs {
		if _, already := earned[def.ID]; already {
			continue
		}
		value, err := currentValue(def, stats)
		if err != nil {
			log.Printf("skipping achievement definition: %v", err)
			continue
		}
		if value < def.Threshold {
			continue
		}

		inserted, err := s.achievementRepo.Award(ctx, userID, def.ID, now)
		if err != nil {
			// Partial achievement coverage beats failing the whole
			// submission; the next evaluation will pick this one up.
			log.Printf("failed to award achievement %s to user %s: %v", def.Code, userID, err)
			continue
		}
		if !inserted {
			continue // raced with a concurrent evaluation
		}

		if def.XPReward > 0 {
			// Bonus XP re-enters the same XP/level recompute the grader
			// uses, under the same profile row lock.
			if _, err := s.profileRepo.AddXP(ctx, userID, def.XPReward); err != nil {
				log.Printf("failed to apply bonus XP for achievement %s: %v", def.Code, err)
			} else {
				totalBonus += def.XPReward
			}
		}

		newly = append(newly, model.EarnedAchievement{
			ID:       def.ID,
			Code:     def.Code,
			Name:     def.Name,
			XPReward: def.XPReward,
		})
	}
	return newly, totalBonus, nil
}

// Progress reports, per definition, how close the user is to earning it.
func (s *AchievementService) Progress(ctx context.Context, userID string) ([]model.AchievementProgress, error) {
	defs, err := s.achievementRepo.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievement definitions: %w", err)
	}
	earned, err := s.achievementRepo.EarnedSet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned set: %w", err)
	}
	stats, err := s.attemptRepo.StatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt stats: %w", err)
	}
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	stats.Level = profile.Level

	progress := make([]model.AchievementProgress, 0, len(defs))
	for _, def := range defs {
		value, err := currentValue(def, stats)
		if err != nil {
			log.Printf("skipping achievement definition: %v", err)
			continue
		}
		p := model.AchievementProgress{
			Definition: def,
			Current:    value,
			Threshold:  def.Threshold,
		}
		if def.Threshold > 0 {
			p.Percentage = 100 * float64(value) / float64(def.Threshold)
			if p.Percentage > 100 {
				p.Percentage = 100
			}
		}
		if at, ok := earned[def.ID]; ok {
			p.Earned = true
			earnedAt := at
			p.EarnedAt = &earnedAt
			p.Percentage = 100
		}
		progress = append(progress, p)
	}
	return progress, nil
}
