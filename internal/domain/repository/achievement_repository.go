package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examquest/internal/domain/model"
)

type AchievementRepository interface {
	// ListDefinitions returns all achievement definitions in ascending
	// id order, the order the evaluator walks them in.
	ListDefinitions(ctx context.Context) ([]model.AchievementDefinition, error)
	// EarnedSet returns the user's earned achievements keyed by
	// definition id. Membership checks against this map make the
	// evaluator idempotent.
	EarnedSet(ctx context.Context, userID string) (map[string]time.Time, error)
	// Award inserts the (user, achievement) row. Returns false without
	// error when the row already exists.
	Award(ctx context.Context, userID, achievementID string, earnedAt time.Time) (bool, error)
}

type pgAchievementRepository struct {
	db *sql.DB
}

func NewPgAchievementRepository(db *sql.DB) AchievementRepository {
	return &pgAchievementRepository{db: db}
}

func (r *pgAchievementRepository) ListDefinitions(ctx context.Context) ([]model.AchievementDefinition, error) {
	query := `SELECT id, code, name, description, criteria_type, threshold,
	                 per_type_minimum, exam_type, xp_reward, created_at
	          FROM achievement_definitions ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgAchievementRepository.ListDefinitions: %w", err)
	}
	defer rows.Close()

	var defs []model.AchievementDefinition
	for rows.Next() {
		var d model.AchievementDefinition
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Description, &d.CriteriaType,
			&d.Threshold, &d.PerTypeMinimum, &d.ExamType, &d.XPReward, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgAchievementRepository.ListDefinitions scan: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (r *pgAchievementRepository) EarnedSet(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT achievement_id, earned_at FROM user_achievements WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgAchievementRepository.EarnedSet: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("pgAchievementRepository.EarnedSet scan: %w", err)
		}
		earned[id] = at
	}
	return earned, rows.Err()
}

func (r *pgAchievementRepository) Award(ctx context.Context, userID, achievementID string, earnedAt time.Time) (bool, error) {
	query := `INSERT INTO user_achievements (user_id, achievement_id, earned_at)
	          VALUES ($1, $2, $3) ON CONFLICT (user_id, achievement_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, userID, achievementID, earnedAt)
	if err != nil {
		return false, fmt.Errorf("pgAchievementRepository.Award: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgAchievementRepository.Award rows affected: %w", err)
	}
	return n > 0, nil
}
