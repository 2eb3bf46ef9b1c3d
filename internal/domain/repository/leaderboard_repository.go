package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"examquest/internal/domain/model"
)

// LeaderboardFilter names one leaderboard view: a metric, a time window
// and the qualifying attempt minimum. The ranked query, the requesting
// user's rank and the qualifying total are ALL derived from the single
// value set this filter builds, so their predicates cannot drift.
type LeaderboardFilter struct {
	Metric     model.LeaderboardMetric
	Window     model.TimeWindow
	ExamType   string // required for MetricExamAvgScore
	MinQuizzes int
	Now        time.Time
}

func (f LeaderboardFilter) windowStart() *time.Time {
	switch f.Window {
	case model.WindowWeekly:
		t := f.Now.AddDate(0, 0, -7)
		return &t
	case model.WindowMonthly:
		t := f.Now.AddDate(0, -1, 0)
		return &t
	}
	return nil
}

// valsCTE builds the per-user value set for the filter as a `vals`
// common table expression with columns (user_id, value).
func (f LeaderboardFilter) valsCTE() (string, []interface{}, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Profile-backed metrics. The current streak is a property of the
	// profile, not of any attempt window; all-time XP comes from the
	// profile so achievement bonuses are counted.
	if f.Metric == model.MetricStreak {
		cte := `vals AS (
			SELECT user_id, streak_current::double precision AS value
			FROM profiles
			WHERE streak_current > 0 AND total_quizzes >= ` + arg(f.MinQuizzes) + `
		)`
		return cte, args, nil
	}
	if f.Metric == model.MetricTotalXP && f.Window == model.WindowAllTime {
		cte := `vals AS (
			SELECT user_id, xp::double precision AS value
			FROM profiles
			WHERE total_quizzes >= ` + arg(f.MinQuizzes) + `
		)`
		return cte, args, nil
	}

	var agg string
	switch f.Metric {
	case model.MetricTotalXP:
		agg = "SUM(a.xp_earned)::double precision"
	case model.MetricQuizCount:
		agg = "COUNT(*)::double precision"
	case model.MetricAvgAccuracy, model.MetricExamAvgScore:
		agg = "AVG(a.score_percentage)"
	default:
		return "", nil, fmt.Errorf("unsupported metric %q", f.Metric)
	}

	var where []string
	if start := f.windowStart(); start != nil {
		where = append(where, "a.completed_at >= "+arg(*start))
	}
	if f.Metric == model.MetricExamAvgScore {
		where = append(where, "a.exam_type = "+arg(f.ExamType))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	cte := `vals AS (
		SELECT a.user_id, ` + agg + ` AS value
		FROM quiz_attempts a` + clause + `
		GROUP BY a.user_id
		HAVING COUNT(*) >= ` + arg(f.MinQuizzes) + `
	)`
	return cte, args, nil
}

type LeaderboardRepository interface {
	// Top returns the highest-value entries, ties broken by user id
	// ascending. Rank fields are left zero; the caller assigns
	// positions.
	Top(ctx context.Context, f LeaderboardFilter, limit int) ([]model.LeaderboardEntry, error)
	// UserStanding returns the user's rank under the same filter
	// (1 + count of strictly better users) together with the total
	// qualifying user count.
	UserStanding(ctx context.Context, f LeaderboardFilter, userID string) (*model.UserRank, int, error)
}

type pgLeaderboardRepository struct {
	db *sql.DB
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db}
}

func (r *pgLeaderboardRepository) Top(ctx context.Context, f LeaderboardFilter, limit int) ([]model.LeaderboardEntry, error) {
	cte, args, err := f.valsCTE()
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Top: %w", err)
	}
	query := `WITH ` + cte + `
		SELECT v.user_id, u.username, p.level, v.value
		FROM vals v
		JOIN users u ON u.id = v.user_id
		JOIN profiles p ON p.user_id = v.user_id
		ORDER BY v.value DESC, v.user_id ASC
		LIMIT $` + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Top: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Level, &e.Value); err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.Top scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgLeaderboardRepository) UserStanding(ctx context.Context, f LeaderboardFilter, userID string) (*model.UserRank, int, error) {
	cte, args, err := f.valsCTE()
	if err != nil {
		return nil, 0, fmt.Errorf("pgLeaderboardRepository.UserStanding: %w", err)
	}
	userArg := fmt.Sprintf("$%d", len(args)+1)
	args = append(args, userID)

	// One statement over one value set: the user's value, their rank
	// and the qualifying total can never disagree on filters.
	query := `WITH ` + cte + `,
		own AS (SELECT value FROM vals WHERE user_id = ` + userArg + `)
		SELECT
			COALESCE((SELECT value FROM own), 0),
			EXISTS(SELECT 1 FROM own),
			1 + (SELECT COUNT(*) FROM vals WHERE value > COALESCE((SELECT value FROM own), 0)),
			(SELECT COUNT(*) FROM vals)`

	var standing model.UserRank
	var total int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&standing.Value, &standing.Qualified, &standing.Rank, &total,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("pgLeaderboardRepository.UserStanding: %w", err)
	}
	normalizeStanding(&standing)
	return &standing, total, nil
}

// normalizeStanding clears the rank and value of a requester outside
// the qualifying set. The SQL COALESCE placeholders give such a user a
// value of 0 and a rank computed against it; neither is meaningful.
func normalizeStanding(standing *model.UserRank) {
	if !standing.Qualified {
		standing.Rank = 0
		standing.Value = 0
	}
}
