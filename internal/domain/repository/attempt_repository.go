package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"examquest/internal/common"
	"examquest/internal/domain/model"
)

// HighScoreThreshold is the score percentage an attempt must reach to
// count as a high-score quiz for achievement criteria.
const HighScoreThreshold = 90.0

type AttemptRepository interface {
	CreateAttempt(ctx context.Context, tx *sql.Tx, attempt *model.QuizAttempt) error
	CreateAnswerRecords(ctx context.Context, tx *sql.Tx, records []model.AnswerRecord) error
	FindByID(ctx context.Context, id string) (*model.QuizAttempt, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.QuizAttempt, int, error)
	GetAnswerRecords(ctx context.Context, attemptID string) ([]model.AnswerRecord, error)
	// StatsForUser aggregates the attempt-derived counters the
	// achievement evaluator consumes.
	StatsForUser(ctx context.Context, userID string) (*model.AttemptStats, error)
}

type pgAttemptRepository struct {
	db *sql.DB
}

func NewPgAttemptRepository(db *sql.DB) AttemptRepository {
	return &pgAttemptRepository{db: db}
}

func (r *pgAttemptRepository) CreateAttempt(ctx context.Context, tx *sql.Tx, a *model.QuizAttempt) error {
	query := `INSERT INTO quiz_attempts (id, user_id, exam_type, total_questions, correct_answers,
	              score_percentage, xp_earned, elapsed_seconds, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecContext(ctx, query, a.ID, a.UserID, a.ExamType, a.TotalQuestions, a.CorrectAnswers,
		a.ScorePercentage, a.XPEarned, a.ElapsedSeconds, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("pgAttemptRepository.CreateAttempt: %w", err)
	}
	return nil
}

func (r *pgAttemptRepository) CreateAnswerRecords(ctx context.Context, tx *sql.Tx, records []model.AnswerRecord) error {
	query := `INSERT INTO answer_records (id, attempt_id, question_id, submitted_choice,
	              correct_choice, is_correct, time_spent_ms)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("pgAttemptRepository.CreateAnswerRecords prepare: %w", err)
	}
	defer stmt.Close()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.AttemptID, rec.QuestionID,
			rec.SubmittedChoice, rec.CorrectChoice, rec.IsCorrect, rec.TimeSpentMs); err != nil {
			return fmt.Errorf("pgAttemptRepository.CreateAnswerRecords: %w", err)
		}
	}
	return nil
}

func (r *pgAttemptRepository) FindByID(ctx context.Context, id string) (*model.QuizAttempt, error) {
	query := `SELECT id, user_id, exam_type, total_questions, correct_answers,
	                 score_percentage, xp_earned, elapsed_seconds, completed_at
	          FROM quiz_attempts WHERE id = $1`
	a := &model.QuizAttempt{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.ExamType, &a.TotalQuestions, &a.CorrectAnswers,
		&a.ScorePercentage, &a.XPEarned, &a.ElapsedSeconds, &a.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAttemptRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAttemptRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.QuizAttempt, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgAttemptRepository.ListByUser count: %w", err)
	}

	query := `SELECT id, user_id, exam_type, total_questions, correct_answers,
	                 score_percentage, xp_earned, elapsed_seconds, completed_at
	          FROM quiz_attempts WHERE user_id = $1
	          ORDER BY completed_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgAttemptRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.ExamType, &a.TotalQuestions, &a.CorrectAnswers,
			&a.ScorePercentage, &a.XPEarned, &a.ElapsedSeconds, &a.CompletedAt); err != nil {
			return nil, 0, fmt.Errorf("pgAttemptRepository.ListByUser scan: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}

func (r *pgAttemptRepository) GetAnswerRecords(ctx context.Context, attemptID string) ([]model.AnswerRecord, error) {
	query := `SELECT id, attempt_id, question_id, submitted_choice, correct_choice,
	                 is_correct, time_spent_ms, created_at
	          FROM answer_records WHERE attempt_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.GetAnswerRecords: %w", err)
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var rec model.AnswerRecord
		if err := rows.Scan(&rec.ID, &rec.AttemptID, &rec.QuestionID, &rec.SubmittedChoice,
			&rec.CorrectChoice, &rec.IsCorrect, &rec.TimeSpentMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.GetAnswerRecords scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *pgAttemptRepository) StatsForUser(ctx context.Context, userID string) (*model.AttemptStats, error) {
	stats := &model.AttemptStats{QuizzesByExamType: make(map[string]int)}

	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE score_percentage >= 100),
	                 COUNT(*) FILTER (WHERE score_percentage >= $2),
	                 COALESCE(SUM(correct_answers), 0)
	          FROM quiz_attempts WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID, HighScoreThreshold).Scan(
		&stats.TotalQuizzes, &stats.PerfectQuizzes, &stats.HighScoreQuizzes, &stats.LifetimeCorrectAnswers,
	)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.StatsForUser: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT exam_type, COUNT(*) FROM quiz_attempts WHERE user_id = $1 GROUP BY exam_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgAttemptRepository.StatsForUser by exam type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var examType string
		var count int
		if err := rows.Scan(&examType, &count); err != nil {
			return nil, fmt.Errorf("pgAttemptRepository.StatsForUser scan: %w", err)
		}
		stats.QuizzesByExamType[examType] = count
	}
	return stats, rows.Err()
}
