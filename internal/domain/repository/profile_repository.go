package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"examquest/internal/common"
	"examquest/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, tx *sql.Tx, profile *model.UserProfile) error
	FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	// FindForUpdate locks the profile row for the duration of the
	// transaction. Concurrent submissions from the same user serialize
	// here; different users never contend.
	FindForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, tx *sql.Tx, profile *model.UserProfile) error
	// AddXP atomically credits an XP delta and recomputes the level,
	// taking the same row lock the grader takes.
	AddXP(ctx context.Context, userID string, delta int) (*model.UserProfile, error)
	SetSelectedAvatar(ctx context.Context, userID, avatarID string) error
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `user_id, xp, level, streak_current, streak_longest,
       total_quizzes, total_questions_answered, selected_avatar_id,
       last_activity_date, created_at, updated_at`

func scanProfile(row *sql.Row) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := row.Scan(
		&p.UserID, &p.XP, &p.Level, &p.StreakCurrent, &p.StreakLongest,
		&p.TotalQuizzes, &p.TotalQuestionsAnswered, &p.SelectedAvatarID,
		&p.LastActivityDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *pgProfileRepository) Create(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	query := `INSERT INTO profiles (user_id, xp, level, streak_current, streak_longest,
	              total_quizzes, total_questions_answered, selected_avatar_id, last_activity_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.UserID, p.XP, p.Level, p.StreakCurrent, p.StreakLongest,
			p.TotalQuizzes, p.TotalQuestionsAnswered, p.SelectedAvatarID, p.LastActivityDate)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.UserID, p.XP, p.Level, p.StreakCurrent, p.StreakLongest,
			p.TotalQuizzes, p.TotalQuestionsAnswered, p.SelectedAvatarID, p.LastActivityDate)
	}
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUserID: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 FOR UPDATE`
	p, err := scanProfile(tx.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgProfileRepository.FindForUpdate: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) Update(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	query := `UPDATE profiles SET
	              xp = $1, level = $2, streak_current = $3, streak_longest = $4,
	              total_quizzes = $5, total_questions_answered = $6,
	              last_activity_date = $7, updated_at = CURRENT_TIMESTAMP
	          WHERE user_id = $8`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.XP, p.Level, p.StreakCurrent, p.StreakLongest,
			p.TotalQuizzes, p.TotalQuestionsAnswered, p.LastActivityDate, p.UserID)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.XP, p.Level, p.StreakCurrent, p.StreakLongest,
			p.TotalQuizzes, p.TotalQuestionsAnswered, p.LastActivityDate, p.UserID)
	}
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Update: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) AddXP(ctx context.Context, userID string, delta int) (*model.UserProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.AddXP begin: %w", err)
	}
	defer tx.Rollback()

	p, err := r.FindForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	p.AddXP(delta)
	if err := r.Update(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pgProfileRepository.AddXP commit: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) SetSelectedAvatar(ctx context.Context, userID, avatarID string) error {
	query := `UPDATE profiles SET selected_avatar_id = $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarID, userID)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.SetSelectedAvatar: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
