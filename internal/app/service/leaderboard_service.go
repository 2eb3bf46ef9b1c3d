package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"examquest/internal/common"
	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"
	"examquest/internal/platform/cache"
)

// Accuracy-style metrics need a minimum attempt count before a user
// qualifies, otherwise a single lucky quiz tops the board.
const defaultAccuracyMinQuizzes = 5

type LeaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	cache           cache.Store
	cacheTTL        time.Duration
	defaultLimit    int
	maxLimit        int
}

func NewLeaderboardService(
	leaderboardRepo repository.LeaderboardRepository,
	cacheStore cache.Store,
	cacheTTL time.Duration,
	defaultLimit, maxLimit int,
) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		cache:           cacheStore,
		cacheTTL:        cacheTTL,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
	}
}

type LeaderboardQuery struct {
	Metric     model.LeaderboardMetric
	Window     model.TimeWindow
	Limit      int // 0 means the configured default
	MinQuizzes int // 0 means the metric's default
	ExamType   string
}

func (s *LeaderboardService) validate(q *LeaderboardQuery) error {
	if !model.ValidMetric(q.Metric) {
		return fmt.Errorf("metric %q: %w", q.Metric, common.ErrInvalidLeaderboardParam)
	}
	if !model.ValidWindow(q.Window) {
		return fmt.Errorf("window %q: %w", q.Window, common.ErrInvalidLeaderboardParam)
	}
	if q.Limit == 0 {
		q.Limit = s.defaultLimit
	}
	if q.Limit < 1 || q.Limit > s.maxLimit {
		return fmt.Errorf("limit %d outside 1..%d: %w", q.Limit, s.maxLimit, common.ErrInvalidLeaderboardParam)
	}
	if q.MinQuizzes < 0 {
		return fmt.Errorf("qualifying minimum %d: %w", q.MinQuizzes, common.ErrInvalidLeaderboardParam)
	}
	if q.MinQuizzes == 0 {
		switch q.Metric {
		case model.MetricAvgAccuracy, model.MetricExamAvgScore:
			q.MinQuizzes = defaultAccuracyMinQuizzes
		default:
			q.MinQuizzes = 1
		}
	}
	if q.Metric == model.MetricExamAvgScore && q.ExamType == "" {
		return fmt.Errorf("exam_type is required for %s: %w", q.Metric, common.ErrInvalidLeaderboardParam)
	}
	return nil
}

// GetLeaderboard returns the top entries plus the requesting user's own
// standing, both computed over the identical filter. Results are served
// from a short-TTL cache; cache failures fall through to the database.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, userID string, q LeaderboardQuery) (*model.Leaderboard, error) {
	if err := s.validate(&q); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s:%d:%d:%s:%s",
		q.Metric, q.Window, q.Limit, q.MinQuizzes, q.ExamType, userID)
	if s.cache != nil {
		var cached model.Leaderboard
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			log.Printf("leaderboard cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	filter := repository.LeaderboardFilter{
		Metric:     q.Metric,
		Window:     q.Window,
		ExamType:   q.ExamType,
		MinQuizzes: q.MinQuizzes,
		Now:        time.Now().UTC(),
	}

	entries, err := s.leaderboardRepo.Top(ctx, filter, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	standing, total, err := s.leaderboardRepo.UserStanding(ctx, filter, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user standing: %w", err)
	}

	board := &model.Leaderboard{
		Metric:               q.Metric,
		Window:               q.Window,
		Entries:              entries,
		RequestingUser:       standing,
		TotalQualifyingUsers: total,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, board, s.cacheTTL); err != nil {
			log.Printf("leaderboard cache write failed: %v", err)
		}
	}
	return board, nil
}
