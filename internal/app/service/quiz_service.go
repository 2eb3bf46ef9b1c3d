package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"examquest/internal/common"
	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"

	"github.com/google/uuid"
)

// XP awarded per correct answer before the accuracy multiplier.
const baseXPPerCorrect = 10

type accuracyTier struct {
	MinPercentage float64
	Multiplier    float64
}

// accuracyTiers is the canonical accuracy-multiplier table. Checked top
// down; the first tier the score reaches wins, anything below the last
// tier earns no bonus.
var accuracyTiers = []accuracyTier{
	{MinPercentage: 90, Multiplier: 1.50},
	{MinPercentage: 80, Multiplier: 1.25},
	{MinPercentage: 70, Multiplier: 1.10},
}

func accuracyMultiplier(scorePercentage float64) float64 {
	for _, tier := range accuracyTiers {
		if scorePercentage >= tier.MinPercentage {
			return tier.Multiplier
		}
	}
	return 1.0
}

type QuizService struct {
	attemptRepo        repository.AttemptRepository
	profileRepo        repository.ProfileRepository
	achievementService *AchievementService
	avatarService      *AvatarService
	db                 *sql.DB // For transactions
}

func NewQuizService(
	attemptRepo repository.AttemptRepository,
	profileRepo repository.ProfileRepository,
	achievementService *AchievementService,
	avatarService *AvatarService,
	db *sql.DB,
) *QuizService {
	return &QuizService{
		attemptRepo:        attemptRepo,
		profileRepo:        profileRepo,
		achievementService: achievementService,
		avatarService:      avatarService,
		db:                 db,
	}
}

type AnswerSubmission struct {
	QuestionID      string `json:"question_id"`
	SubmittedChoice string `json:"submitted_choice"`
	CorrectChoice   string `json:"correct_choice"`
	IsCorrect       *bool  `json:"is_correct,omitempty"`
	TimeSpentMs     int    `json:"time_spent_ms"`
}

type SubmitQuizRequest struct {
	ExamType       string             `json:"exam_type"`
	TotalQuestions int                `json:"total_questions"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Answers        []AnswerSubmission `json:"answers"`
}

type SubmitQuizResult struct {
	AttemptID            string                    `json:"attempt_id"`
	ScorePercentage      float64                   `json:"score_percentage"`
	XPEarned             int                       `json:"xp_earned"`
	NewLevel             int                       `json:"new_level"`
	LevelUp              bool                      `json:"level_up"`
	AchievementsUnlocked []model.EarnedAchievement `json:"achievements_unlocked"`
	AvatarsUnlocked      []model.UnlockedAvatar    `json:"avatars_unlocked"`
}

// validate rejects malformed submissions before any write happens.
// The client-supplied correctness flag is untrusted: correctness is
// recomputed from the choices, and a disagreeing flag fails the whole
// submission.
func validateSubmission(req SubmitQuizRequest) error {
	if req.ExamType == "" {
		return fmt.Errorf("exam_type is required: %w", common.ErrBadRequest)
	}
	if req.TotalQuestions <= 0 {
		return fmt.Errorf("total_questions must be positive: %w", common.ErrBadRequest)
	}
	if len(req.Answers) != req.TotalQuestions {
		return fmt.Errorf("declared %d questions but submitted %d answers: %w",
			req.TotalQuestions, len(req.Answers), common.ErrShapeMismatch)
	}
	for i, ans := range req.Answers {
		if !model.ValidChoice(ans.SubmittedChoice) {
			return fmt.Errorf("answer %d: submitted choice %q: %w", i, ans.SubmittedChoice, common.ErrInvalidChoice)
		}
		if !model.ValidChoice(ans.CorrectChoice) {
			return fmt.Errorf("answer %d: reference choice %q: %w", i, ans.CorrectChoice, common.ErrInvalidChoice)
		}
		if ans.IsCorrect != nil && *ans.IsCorrect != (ans.SubmittedChoice == ans.CorrectChoice) {
			return fmt.Errorf("answer %d: correctness flag disagrees with choices: %w", i, common.ErrValidation)
		}
	}
	return nil
}

type gradedSubmission struct {
	Correct         int
	ScorePercentage float64
	XPEarned        int
	Records         []model.AnswerRecord
}

// gradeAnswers computes the score and XP for a validated submission:
// base XP per correct answer scaled by the accuracy tier, floored.
func gradeAnswers(attemptID string, req SubmitQuizRequest) gradedSubmission {
	correct := 0
	records := make([]model.AnswerRecord, 0, len(req.Answers))
	for _, ans := range req.Answers {
		isCorrect := ans.SubmittedChoice == ans.CorrectChoice
		if isCorrect {
			correct++
		}
		records = append(records, model.AnswerRecord{
			ID:              uuid.NewString(),
			AttemptID:       attemptID,
			QuestionID:      ans.QuestionID,
			SubmittedChoice: ans.SubmittedChoice,
			CorrectChoice:   ans.CorrectChoice,
			IsCorrect:       isCorrect,
			TimeSpentMs:     ans.TimeSpentMs,
		})
	}

	scorePercentage := 100 * float64(correct) / float64(req.TotalQuestions)
	baseXP := baseXPPerCorrect * correct
	xpEarned := int(math.Floor(float64(baseXP) * accuracyMultiplier(scorePercentage)))

	return gradedSubmission{
		Correct:         correct,
		ScorePercentage: scorePercentage,
		XPEarned:        xpEarned,
		Records:         records,
	}
}

// SubmitQuiz grades the attempt, persists it atomically with the
// profile XP/level delta, then runs achievement evaluation and the
// avatar cascade. The tail of the pipeline is idempotent, so a retry
// after a partial failure cannot double-award.
func (s *QuizService) SubmitQuiz(ctx context.Context, userID string, req SubmitQuizRequest) (*SubmitQuizResult, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	attemptID := uuid.NewString()
	graded := gradeAnswers(attemptID, req)

	now := time.Now().UTC()
	attempt := &model.QuizAttempt{
		ID:              attemptID,
		UserID:          userID,
		ExamType:        req.ExamType,
		TotalQuestions:  req.TotalQuestions,
		CorrectAnswers:  graded.Correct,
		ScorePercentage: graded.ScorePercentage,
		XPEarned:        graded.XPEarned,
		ElapsedSeconds:  req.ElapsedSeconds,
		CompletedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Locking the profile row serializes concurrent submissions from
	// the same user; both attempts still commit, neither XP write is
	// lost.
	profile, err := s.profileRepo.FindForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	levelBefore := profile.Level

	if err := s.attemptRepo.CreateAttempt(ctx, tx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	if err := s.attemptRepo.CreateAnswerRecords(ctx, tx, graded.Records); err != nil {
		return nil, fmt.Errorf("failed to create answer records: %w", err)
	}

	profile.AddXP(graded.XPEarned)
	profile.TotalQuizzes++
	profile.TotalQuestionsAnswered += req.TotalQuestions
	profile.TouchStreak(now)
	if err := s.profileRepo.Update(ctx, tx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &SubmitQuizResult{
		AttemptID:       attempt.ID,
		ScorePercentage: graded.ScorePercentage,
		XPEarned:        graded.XPEarned,
		NewLevel:        profile.Level,
		LevelUp:         profile.Level > levelBefore,
	}
	s.settleProgressions(ctx, userID, req.ExamType, levelBefore, result)
	return result, nil
}

// settleProgressions runs the post-commit tail of a submission: stats
// refresh, achievement evaluation, avatar cascade and the bonus-XP
// level re-read. The grading transaction is already committed, so a
// failure here must not surface as an error; a caller retrying the
// request would re-grade the attempt and double-credit its XP. Every
// step re-checks "already earned/unlocked", so the next submission's
// evaluation picks up whatever a failed tail left behind.
func (s *QuizService) settleProgressions(ctx context.Context, userID, examType string, levelBefore int, result *SubmitQuizResult) {
	stats, err := s.attemptRepo.StatsForUser(ctx, userID)
	if err != nil {
		log.Printf("post-commit stats load failed for user %s: %v", userID, err)
		return
	}
	stats.Level = result.NewLevel

	earned, bonusXP, err := s.achievementService.Evaluate(ctx, userID, examType, stats)
	if err != nil {
		log.Printf("achievement evaluation failed for user %s: %v", userID, err)
		return
	}
	result.AchievementsUnlocked = earned

	unlocked, err := s.avatarService.CascadeUnlocks(ctx, userID, earned)
	if err != nil {
		log.Printf("avatar cascade failed for user %s: %v", userID, err)
	} else {
		result.AvatarsUnlocked = unlocked
	}

	if bonusXP > 0 {
		// Bonus XP may have pushed the level further; report the level
		// the user actually ends the submission at.
		if fresh, err := s.profileRepo.FindByUserID(ctx, userID); err == nil {
			result.NewLevel = fresh.Level
			result.LevelUp = result.NewLevel > levelBefore
		} else {
			log.Printf("could not re-read profile for user %s after bonus XP: %v", userID, err)
		}
	}
}

// GetAttempt returns one attempt with its answer records; users can only
// read their own history.
func (s *QuizService) GetAttempt(ctx context.Context, userID, attemptID string) (*model.QuizAttempt, []model.AnswerRecord, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, nil, common.ErrForbidden
	}
	records, err := s.attemptRepo.GetAnswerRecords(ctx, attemptID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load answer records: %w", err)
	}
	return attempt, records, nil
}

func (s *QuizService) ListAttempts(ctx context.Context, userID string, limit, offset int) ([]model.QuizAttempt, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.attemptRepo.ListByUser(ctx, userID, limit, offset)
}
