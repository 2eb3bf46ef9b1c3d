package model

import "time"

type CriteriaType string

const (
	CriteriaQuizzesCompleted       CriteriaType = "quizzes_completed"
	CriteriaPerfectQuizCount       CriteriaType = "perfect_quiz_count"
	CriteriaHighScoreQuizCount     CriteriaType = "high_score_quiz_count"
	CriteriaLifetimeCorrectAnswers CriteriaType = "lifetime_correct_answers"
	CriteriaLevelReached           CriteriaType = "level_reached"
	CriteriaQuizzesInOneExamType   CriteriaType = "quizzes_in_one_exam_type"
	CriteriaQuizzesAcrossExamTypes CriteriaType = "quizzes_across_exam_types"
)

// AchievementDefinition is static reference data describing one milestone.
// Threshold is the main criterion value. For the across-exam-types
// criterion, Threshold is the required distinct-type count and
// PerTypeMinimum the quiz count each type must individually reach.
// ExamType scopes the in-one-exam-type criterion to a specific exam;
// when nil, the best-represented exam type is used.
type AchievementDefinition struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	CriteriaType   CriteriaType `json:"criteria_type"`
	Threshold      int          `json:"threshold"`
	PerTypeMinimum int          `json:"per_type_minimum,omitempty"`
	ExamType       *string      `json:"exam_type,omitempty"`
	XPReward       int          `json:"xp_reward"`
	CreatedAt      time.Time    `json:"created_at"`
}

// UserAchievement records a one-way earned transition. At most one row
// exists per (user, achievement).
type UserAchievement struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}

// EarnedAchievement is the descriptor returned for a newly-earned
// achievement in a submission response.
type EarnedAchievement struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	XPReward int    `json:"xp_reward"`
}

// AchievementProgress reports how far a user is toward one definition.
type AchievementProgress struct {
	Definition AchievementDefinition `json:"definition"`
	Current    int                   `json:"current"`
	Threshold  int                   `json:"threshold"`
	Percentage float64               `json:"percentage"`
	Earned     bool                  `json:"earned"`
	EarnedAt   *time.Time            `json:"earned_at,omitempty"`
}
