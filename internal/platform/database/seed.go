package database

import (
	"context"
	"database/sql"
	"fmt"

	"examquest/internal/domain/model"

	"github.com/gosimple/slug"
)

type seedAchievement struct {
	ID             string
	Name           string
	Description    string
	CriteriaType   model.CriteriaType
	Threshold      int
	PerTypeMinimum int
	ExamType       string
	XPReward       int
}

type seedAvatar struct {
	ID                    string
	Name                  string
	ImageURL              string
	RequiredAchievementID string
}

// Achievement ids carry a numeric prefix so ascending-id order is the
// evaluation order.
var seedAchievements = []seedAchievement{
	{ID: "ach-001", Name: "First Steps", Description: "Complete your first quiz", CriteriaType: model.CriteriaQuizzesCompleted, Threshold: 1, XPReward: 50},
	{ID: "ach-002", Name: "Getting Serious", Description: "Complete 10 quizzes", CriteriaType: model.CriteriaQuizzesCompleted, Threshold: 10, XPReward: 100},
	{ID: "ach-003", Name: "Half Century", Description: "Complete 50 quizzes", CriteriaType: model.CriteriaQuizzesCompleted, Threshold: 50, XPReward: 250},
	{ID: "ach-004", Name: "Flawless", Description: "Score 100% on a quiz", CriteriaType: model.CriteriaPerfectQuizCount, Threshold: 1, XPReward: 75},
	{ID: "ach-005", Name: "Perfectionist", Description: "Score 100% on 10 quizzes", CriteriaType: model.CriteriaPerfectQuizCount, Threshold: 10, XPReward: 300},
	{ID: "ach-006", Name: "Sharp Shooter", Description: "Score 90% or better on 5 quizzes", CriteriaType: model.CriteriaHighScoreQuizCount, Threshold: 5, XPReward: 150},
	{ID: "ach-007", Name: "Century", Description: "Answer 100 questions correctly", CriteriaType: model.CriteriaLifetimeCorrectAnswers, Threshold: 100, XPReward: 100},
	{ID: "ach-008", Name: "Scholar", Description: "Answer 1000 questions correctly", CriteriaType: model.CriteriaLifetimeCorrectAnswers, Threshold: 1000, XPReward: 400},
	{ID: "ach-009", Name: "Rising Star", Description: "Reach level 5", CriteriaType: model.CriteriaLevelReached, Threshold: 5, XPReward: 150},
	{ID: "ach-010", Name: "Powerhouse", Description: "Reach level 10", CriteriaType: model.CriteriaLevelReached, Threshold: 10, XPReward: 500},
	{ID: "ach-011", Name: "Specialist", Description: "Complete 25 quizzes in one exam type", CriteriaType: model.CriteriaQuizzesInOneExamType, Threshold: 25, XPReward: 200},
	{ID: "ach-012", Name: "Well Rounded", Description: "Complete 10 quizzes in each of 2 exam types", CriteriaType: model.CriteriaQuizzesAcrossExamTypes, Threshold: 2, PerTypeMinimum: 10, XPReward: 250},
}

var seedAvatars = []seedAvatar{
	{ID: "ava-001", Name: "Rookie", ImageURL: "/avatars/rookie.png"},
	{ID: "ava-002", Name: "Bookworm", ImageURL: "/avatars/bookworm.png"},
	{ID: "ava-003", Name: "Graduate", ImageURL: "/avatars/graduate.png", RequiredAchievementID: "ach-001"},
	{ID: "ava-004", Name: "Gold Star", ImageURL: "/avatars/gold_star.png", RequiredAchievementID: "ach-004"},
	{ID: "ava-005", Name: "Professor", ImageURL: "/avatars/professor.png", RequiredAchievementID: "ach-005"},
	{ID: "ava-006", Name: "Rocket", ImageURL: "/avatars/rocket.png", RequiredAchievementID: "ach-009"},
	{ID: "ava-007", Name: "Crown", ImageURL: "/avatars/crown.png", RequiredAchievementID: "ach-010"},
	{ID: "ava-008", Name: "Owl Sage", ImageURL: "/avatars/owl_sage.png", RequiredAchievementID: "ach-008"},
}

// SeedReferenceData inserts the achievement and avatar catalogs.
// Inserts are conflict-free re-runs, so startup can call this every time.
func SeedReferenceData(ctx context.Context, db *sql.DB) error {
	achQuery := `INSERT INTO achievement_definitions
	                 (id, code, name, description, criteria_type, threshold, per_type_minimum, exam_type, xp_reward)
	             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	             ON CONFLICT (id) DO NOTHING`
	for _, a := range seedAchievements {
		var examType *string
		if a.ExamType != "" {
			examType = &a.ExamType
		}
		if _, err := db.ExecContext(ctx, achQuery,
			a.ID, slug.Make(a.Name), a.Name, a.Description, a.CriteriaType,
			a.Threshold, a.PerTypeMinimum, examType, a.XPReward); err != nil {
			return fmt.Errorf("seed achievement %s: %w", a.ID, err)
		}
	}

	avaQuery := `INSERT INTO avatar_definitions (id, code, name, image_url, required_achievement_id)
	             VALUES ($1, $2, $3, $4, $5)
	             ON CONFLICT (id) DO NOTHING`
	for _, a := range seedAvatars {
		var required *string
		if a.RequiredAchievementID != "" {
			required = &a.RequiredAchievementID
		}
		if _, err := db.ExecContext(ctx, avaQuery,
			a.ID, slug.Make(a.Name), a.Name, a.ImageURL, required); err != nil {
			return fmt.Errorf("seed avatar %s: %w", a.ID, err)
		}
	}
	return nil
}
