package model

import (
	"math"
	"time"
)

// UserProfile holds the per-user cumulative progression counters.
// XP is monotonically non-decreasing; Level is always derived from XP
// via LevelForXP after any mutation.
type UserProfile struct {
	UserID                 string     `json:"user_id"`
	XP                     int        `json:"xp"`
	Level                  int        `json:"level"`
	StreakCurrent          int        `json:"streak_current"`
	StreakLongest          int        `json:"streak_longest"`
	TotalQuizzes           int        `json:"total_quizzes"`
	TotalQuestionsAnswered int        `json:"total_questions_answered"`
	SelectedAvatarID       *string    `json:"selected_avatar_id,omitempty"`
	LastActivityDate       *time.Time `json:"last_activity_date,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// LevelForXP computes the level tier for a cumulative XP total:
// level = floor(sqrt(xp/100)) + 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp)/100)) + 1
}

// AddXP applies an XP delta and recomputes the derived level.
// Returns true if the level increased.
func (p *UserProfile) AddXP(delta int) bool {
	oldLevel := p.Level
	p.XP += delta
	p.Level = LevelForXP(p.XP)
	return p.Level > oldLevel
}

// TouchStreak advances the daily streak for activity on the given day.
// Same-day activity leaves the streak unchanged; a one-day gap extends
// it; anything longer resets it to 1.
func (p *UserProfile) TouchStreak(now time.Time) {
	today := now.Truncate(24 * time.Hour)
	switch {
	case p.LastActivityDate == nil:
		p.StreakCurrent = 1
	case p.LastActivityDate.Truncate(24 * time.Hour).Equal(today):
		// already counted today
	case p.LastActivityDate.Truncate(24 * time.Hour).Equal(today.AddDate(0, 0, -1)):
		p.StreakCurrent++
	default:
		p.StreakCurrent = 1
	}
	if p.StreakCurrent > p.StreakLongest {
		p.StreakLongest = p.StreakCurrent
	}
	p.LastActivityDate = &today
}
