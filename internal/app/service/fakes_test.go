package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"examquest/internal/common"
	"examquest/internal/domain/model"
	"examquest/internal/domain/repository"
)

// In-memory repository fakes. The profile fake guards every mutation
// with one lock per store, matching the row-lock contract the pg
// implementation provides with SELECT ... FOR UPDATE.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.UserProfile)}
}

func (r *fakeProfileRepo) Create(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*model.UserProfile, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *fakeProfileRepo) Update(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) AddXP(ctx context.Context, userID string, delta int) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.AddXP(delta)
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) SetSelectedAvatar(ctx context.Context, userID, avatarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.SelectedAvatarID = &avatarID
	return nil
}

type fakeAttemptRepo struct {
	attempts map[string]*model.QuizAttempt
	records  map[string][]model.AnswerRecord
	stats    model.AttemptStats
	findErr  error
	statsErr error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{
		attempts: make(map[string]*model.QuizAttempt),
		records:  make(map[string][]model.AnswerRecord),
	}
}

func (r *fakeAttemptRepo) CreateAttempt(ctx context.Context, tx *sql.Tx, attempt *model.QuizAttempt) error {
	cp := *attempt
	r.attempts[attempt.ID] = &cp
	return nil
}

func (r *fakeAttemptRepo) CreateAnswerRecords(ctx context.Context, tx *sql.Tx, records []model.AnswerRecord) error {
	for _, rec := range records {
		r.records[rec.AttemptID] = append(r.records[rec.AttemptID], rec)
	}
	return nil
}

func (r *fakeAttemptRepo) FindByID(ctx context.Context, id string) (*model.QuizAttempt, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.attempts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttemptRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.QuizAttempt, int, error) {
	var out []model.QuizAttempt
	for _, a := range r.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeAttemptRepo) GetAnswerRecords(ctx context.Context, attemptID string) ([]model.AnswerRecord, error) {
	return r.records[attemptID], nil
}

func (r *fakeAttemptRepo) StatsForUser(ctx context.Context, userID string) (*model.AttemptStats, error) {
	if r.statsErr != nil {
		return nil, r.statsErr
	}
	stats := r.stats
	if stats.QuizzesByExamType == nil {
		stats.QuizzesByExamType = make(map[string]int)
	}
	return &stats, nil
}

type fakeAchievementRepo struct {
	mu     sync.Mutex
	defs   []model.AchievementDefinition
	earned map[string]map[string]time.Time // userID -> achievementID -> earnedAt
}

func newFakeAchievementRepo(defs []model.AchievementDefinition) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		defs:   defs,
		earned: make(map[string]map[string]time.Time),
	}
}

func (r *fakeAchievementRepo) ListDefinitions(ctx context.Context) ([]model.AchievementDefinition, error) {
	defs := make([]model.AchievementDefinition, len(r.defs))
	copy(defs, r.defs)
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func (r *fakeAchievementRepo) EarnedSet(ctx context.Context, userID string) (map[string]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]time.Time)
	for id, at := range r.earned[userID] {
		set[id] = at
	}
	return set, nil
}

func (r *fakeAchievementRepo) Award(ctx context.Context, userID, achievementID string, earnedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.earned[userID] == nil {
		r.earned[userID] = make(map[string]time.Time)
	}
	if _, ok := r.earned[userID][achievementID]; ok {
		return false, nil
	}
	r.earned[userID][achievementID] = earnedAt
	return true, nil
}

type fakeAvatarRepo struct {
	defs     []model.AvatarDefinition
	unlocked map[string]map[string]time.Time // userID -> avatarID -> unlockedAt
}

func newFakeAvatarRepo(defs []model.AvatarDefinition) *fakeAvatarRepo {
	return &fakeAvatarRepo{
		defs:     defs,
		unlocked: make(map[string]map[string]time.Time),
	}
}

func (r *fakeAvatarRepo) ListDefinitions(ctx context.Context) ([]model.AvatarDefinition, error) {
	return r.defs, nil
}

func (r *fakeAvatarRepo) FindByRequiredAchievement(ctx context.Context, achievementID string) ([]model.AvatarDefinition, error) {
	var out []model.AvatarDefinition
	for _, d := range r.defs {
		if d.RequiredAchievementID != nil && *d.RequiredAchievementID == achievementID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeAvatarRepo) ListDefaults(ctx context.Context) ([]model.AvatarDefinition, error) {
	var out []model.AvatarDefinition
	for _, d := range r.defs {
		if d.RequiredAchievementID == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeAvatarRepo) Unlock(ctx context.Context, tx *sql.Tx, userID, avatarID string, unlockedAt time.Time) (bool, error) {
	if r.unlocked[userID] == nil {
		r.unlocked[userID] = make(map[string]time.Time)
	}
	if _, ok := r.unlocked[userID][avatarID]; ok {
		return false, nil
	}
	r.unlocked[userID][avatarID] = unlockedAt
	return true, nil
}

func (r *fakeAvatarRepo) UnlockedSet(ctx context.Context, userID string) (map[string]time.Time, error) {
	set := make(map[string]time.Time)
	for id, at := range r.unlocked[userID] {
		set[id] = at
	}
	return set, nil
}

// fakeLeaderboardRepo holds one qualifying value set per window and
// derives Top, UserStanding and the total from it, the same contract
// the pg implementation gets from its shared CTE.
type fakeLeaderboardRepo struct {
	byWindow map[model.TimeWindow]map[string]float64
	names    map[string]string
	levels   map[string]int

	lastFilter repository.LeaderboardFilter
	topCalls   int
}

func (r *fakeLeaderboardRepo) Top(ctx context.Context, f repository.LeaderboardFilter, limit int) ([]model.LeaderboardEntry, error) {
	r.lastFilter = f
	r.topCalls++
	var entries []model.LeaderboardEntry
	for id, v := range r.byWindow[f.Window] {
		entries = append(entries, model.LeaderboardEntry{
			UserID:   id,
			Username: r.names[id],
			Value:    v,
			Level:    r.levels[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fakeLeaderboardRepo) UserStanding(ctx context.Context, f repository.LeaderboardFilter, userID string) (*model.UserRank, int, error) {
	vals := r.byWindow[f.Window]
	total := len(vals)
	standing := &model.UserRank{}
	v, ok := vals[userID]
	if !ok {
		return standing, total, nil
	}
	standing.Qualified = true
	standing.Value = v
	standing.Rank = 1
	for _, other := range vals {
		if other > v {
			standing.Rank++
		}
	}
	return standing, total, nil
}

type fakeCache struct {
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}
