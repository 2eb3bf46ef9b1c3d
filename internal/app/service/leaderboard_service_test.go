package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"examquest/internal/common"
	"examquest/internal/domain/model"
	"examquest/internal/platform/cache"
)

func newTestLeaderboardService(repo *fakeLeaderboardRepo, store *fakeCache) *LeaderboardService {
	// A nil *fakeCache must become an untyped nil interface, or the
	// service's cache-presence check sees a non-nil cache.Store.
	var cs cache.Store
	if store != nil {
		cs = store
	}
	return NewLeaderboardService(repo, cs, 30*time.Second, 10, 500)
}

func TestLeaderboardValidate(t *testing.T) {
	svc := newTestLeaderboardService(&fakeLeaderboardRepo{}, nil)

	tests := []struct {
		name    string
		query   LeaderboardQuery
		wantErr bool
	}{
		{"valid defaults", LeaderboardQuery{Metric: model.MetricTotalXP, Window: model.WindowAllTime}, false},
		{"unknown metric", LeaderboardQuery{Metric: "reputation", Window: model.WindowAllTime}, true},
		{"unknown window", LeaderboardQuery{Metric: model.MetricTotalXP, Window: "yearly"}, true},
		{"limit too large", LeaderboardQuery{Metric: model.MetricTotalXP, Window: model.WindowAllTime, Limit: 501}, true},
		{"limit at max", LeaderboardQuery{Metric: model.MetricTotalXP, Window: model.WindowAllTime, Limit: 500}, false},
		{"negative qualifying minimum", LeaderboardQuery{Metric: model.MetricTotalXP, Window: model.WindowAllTime, MinQuizzes: -1}, true},
		{"exam average without exam type", LeaderboardQuery{Metric: model.MetricExamAvgScore, Window: model.WindowAllTime}, true},
		{"exam average with exam type", LeaderboardQuery{Metric: model.MetricExamAvgScore, Window: model.WindowAllTime, ExamType: "GED"}, false},
		{"streak weekly accepted", LeaderboardQuery{Metric: model.MetricStreak, Window: model.WindowWeekly}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			err := svc.validate(&q)
			if tt.wantErr {
				if !errors.Is(err, common.ErrInvalidLeaderboardParam) {
					t.Errorf("got %v, want ErrInvalidLeaderboardParam", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLeaderboardValidateDefaults(t *testing.T) {
	svc := newTestLeaderboardService(&fakeLeaderboardRepo{}, nil)

	q := LeaderboardQuery{Metric: model.MetricTotalXP, Window: model.WindowAllTime}
	if err := svc.validate(&q); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 10 {
		t.Errorf("default limit = %d, want 10", q.Limit)
	}
	if q.MinQuizzes != 1 {
		t.Errorf("count metric qualifying minimum = %d, want 1", q.MinQuizzes)
	}

	q = LeaderboardQuery{Metric: model.MetricAvgAccuracy, Window: model.WindowAllTime}
	if err := svc.validate(&q); err != nil {
		t.Fatal(err)
	}
	if q.MinQuizzes != defaultAccuracyMinQuizzes {
		t.Errorf("accuracy metric qualifying minimum = %d, want %d", q.MinQuizzes, defaultAccuracyMinQuizzes)
	}
}

func TestGetLeaderboardAssignsRanks(t *testing.T) {
	repo := &fakeLeaderboardRepo{
		byWindow: map[model.TimeWindow]map[string]float64{
			model.WindowAllTime: {"a": 900, "b": 450, "c": 100, "me": 40},
		},
		names:  map[string]string{"a": "ada", "b": "bea", "c": "cal", "me": "mia"},
		levels: map[string]int{"a": 4, "b": 3, "c": 2, "me": 1},
	}
	svc := newTestLeaderboardService(repo, nil)

	board, err := svc.GetLeaderboard(context.Background(), "me", LeaderboardQuery{
		Metric: model.MetricTotalXP,
		Window: model.WindowAllTime,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(board.Entries))
	}
	for i, e := range board.Entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, e.Rank, i+1)
		}
	}
	if board.Entries[0].UserID != "a" || board.Entries[3].UserID != "me" {
		t.Errorf("entries not ordered by value: %+v", board.Entries)
	}
	if board.RequestingUser == nil || !board.RequestingUser.Qualified {
		t.Fatalf("requesting user standing = %+v, want qualified", board.RequestingUser)
	}
	if board.RequestingUser.Rank != 4 || board.RequestingUser.Value != 40 {
		t.Errorf("requesting user = %+v, want rank 4 value 40", board.RequestingUser)
	}
	if board.TotalQualifyingUsers != 4 {
		t.Errorf("total qualifying = %d, want 4", board.TotalQualifyingUsers)
	}
	// A qualified requester's rank can never exceed the qualifying
	// total; both come from the same value set.
	if board.RequestingUser.Rank > board.TotalQualifyingUsers {
		t.Errorf("rank %d exceeds total %d", board.RequestingUser.Rank, board.TotalQualifyingUsers)
	}
	if repo.lastFilter.MinQuizzes != 1 {
		t.Errorf("filter qualifying minimum = %d, want 1", repo.lastFilter.MinQuizzes)
	}
}

// A user whose attempts all predate the window earns nothing in it:
// zero value, no rank, and no seat in the qualifying total. The same
// user still ranks on the all-time board.
func TestWeeklyBoardExcludesUserActiveOnlyInThePast(t *testing.T) {
	repo := &fakeLeaderboardRepo{
		byWindow: map[model.TimeWindow]map[string]float64{
			model.WindowAllTime: {"me": 500, "a": 320},
			model.WindowWeekly:  {"a": 120},
		},
		names:  map[string]string{"a": "ada", "me": "mia"},
		levels: map[string]int{"a": 2, "me": 3},
	}
	svc := newTestLeaderboardService(repo, nil)
	ctx := context.Background()

	weekly, err := svc.GetLeaderboard(ctx, "me", LeaderboardQuery{
		Metric: model.MetricTotalXP,
		Window: model.WindowWeekly,
	})
	if err != nil {
		t.Fatal(err)
	}
	if weekly.RequestingUser.Qualified {
		t.Error("user with no attempts this week should not qualify")
	}
	if weekly.RequestingUser.Value != 0 || weekly.RequestingUser.Rank != 0 {
		t.Errorf("weekly standing = %+v, want zero value and no rank", weekly.RequestingUser)
	}
	if weekly.TotalQualifyingUsers != 1 {
		t.Errorf("weekly total = %d, want 1 (requester excluded)", weekly.TotalQualifyingUsers)
	}
	for _, e := range weekly.Entries {
		if e.UserID == "me" {
			t.Error("requester appears in a window they have no activity in")
		}
	}

	allTime, err := svc.GetLeaderboard(ctx, "me", LeaderboardQuery{
		Metric: model.MetricTotalXP,
		Window: model.WindowAllTime,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !allTime.RequestingUser.Qualified || allTime.RequestingUser.Rank != 1 {
		t.Errorf("all-time standing = %+v, want qualified rank 1", allTime.RequestingUser)
	}
	if allTime.TotalQualifyingUsers != 2 {
		t.Errorf("all-time total = %d, want 2", allTime.TotalQualifyingUsers)
	}
}

func TestGetLeaderboardUsesCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{
		byWindow: map[model.TimeWindow]map[string]float64{
			model.WindowWeekly: {"a": 900, "me": 30},
		},
		names:  map[string]string{"a": "ada", "me": "mia"},
		levels: map[string]int{"a": 4, "me": 1},
	}
	store := newFakeCache()
	svc := newTestLeaderboardService(repo, store)
	ctx := context.Background()
	q := LeaderboardQuery{Metric: model.MetricQuizCount, Window: model.WindowWeekly}

	first, err := svc.GetLeaderboard(ctx, "me", q)
	if err != nil {
		t.Fatal(err)
	}
	if repo.topCalls != 1 || store.sets != 1 {
		t.Fatalf("first call: topCalls=%d sets=%d, want 1/1", repo.topCalls, store.sets)
	}

	second, err := svc.GetLeaderboard(ctx, "me", q)
	if err != nil {
		t.Fatal(err)
	}
	if repo.topCalls != 1 {
		t.Errorf("second call hit the database, topCalls=%d", repo.topCalls)
	}
	if len(second.Entries) != len(first.Entries) || second.TotalQualifyingUsers != first.TotalQualifyingUsers {
		t.Error("cached board differs from the original")
	}

	// A different viewer gets their own cache entry, since the board
	// embeds that viewer's standing.
	if _, err := svc.GetLeaderboard(ctx, "someone-else", q); err != nil {
		t.Fatal(err)
	}
	if repo.topCalls != 2 {
		t.Errorf("different viewer should miss the cache, topCalls=%d", repo.topCalls)
	}
}
