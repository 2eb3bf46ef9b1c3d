package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examquest/internal/domain/model"
)

type AvatarRepository interface {
	ListDefinitions(ctx context.Context) ([]model.AvatarDefinition, error)
	// FindByRequiredAchievement returns the avatars gated behind the
	// given achievement.
	FindByRequiredAchievement(ctx context.Context, achievementID string) ([]model.AvatarDefinition, error)
	// ListDefaults returns the avatars with no prerequisite; these are
	// unlocked once, at account creation.
	ListDefaults(ctx context.Context) ([]model.AvatarDefinition, error)
	// Unlock inserts the (user, avatar) row. Returns false without
	// error when the row already exists.
	Unlock(ctx context.Context, tx *sql.Tx, userID, avatarID string, unlockedAt time.Time) (bool, error)
	UnlockedSet(ctx context.Context, userID string) (map[string]time.Time, error)
}

type pgAvatarRepository struct {
	db *sql.DB
}

func NewPgAvatarRepository(db *sql.DB) AvatarRepository {
	return &pgAvatarRepository{db: db}
}

const avatarColumns = `id, code, name, image_url, required_achievement_id, created_at`

func (r *pgAvatarRepository) queryDefinitions(ctx context.Context, query string, args ...interface{}) ([]model.AvatarDefinition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []model.AvatarDefinition
	for rows.Next() {
		var d model.AvatarDefinition
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.ImageURL, &d.RequiredAchievementID, &d.CreatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (r *pgAvatarRepository) ListDefinitions(ctx context.Context) ([]model.AvatarDefinition, error) {
	defs, err := r.queryDefinitions(ctx,
		`SELECT `+avatarColumns+` FROM avatar_definitions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgAvatarRepository.ListDefinitions: %w", err)
	}
	return defs, nil
}

func (r *pgAvatarRepository) FindByRequiredAchievement(ctx context.Context, achievementID string) ([]model.AvatarDefinition, error) {
	defs, err := r.queryDefinitions(ctx,
		`SELECT `+avatarColumns+` FROM avatar_definitions WHERE required_achievement_id = $1 ORDER BY id ASC`,
		achievementID)
	if err != nil {
		return nil, fmt.Errorf("pgAvatarRepository.FindByRequiredAchievement: %w", err)
	}
	return defs, nil
}

func (r *pgAvatarRepository) ListDefaults(ctx context.Context) ([]model.AvatarDefinition, error) {
	defs, err := r.queryDefinitions(ctx,
		`SELECT `+avatarColumns+` FROM avatar_definitions WHERE required_achievement_id IS NULL ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgAvatarRepository.ListDefaults: %w", err)
	}
	return defs, nil
}

func (r *pgAvatarRepository) Unlock(ctx context.Context, tx *sql.Tx, userID, avatarID string, unlockedAt time.Time) (bool, error) {
	query := `INSERT INTO user_avatar_unlocks (user_id, avatar_id, unlocked_at)
	          VALUES ($1, $2, $3) ON CONFLICT (user_id, avatar_id) DO NOTHING`
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, userID, avatarID, unlockedAt)
	} else {
		result, err = r.db.ExecContext(ctx, query, userID, avatarID, unlockedAt)
	}
	if err != nil {
		return false, fmt.Errorf("pgAvatarRepository.Unlock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgAvatarRepository.Unlock rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *pgAvatarRepository) UnlockedSet(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT avatar_id, unlocked_at FROM user_avatar_unlocks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgAvatarRepository.UnlockedSet: %w", err)
	}
	defer rows.Close()

	unlocked := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("pgAvatarRepository.UnlockedSet scan: %w", err)
		}
		unlocked[id] = at
	}
	return unlocked, rows.Err()
}
