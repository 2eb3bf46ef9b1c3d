package model

import (
	"math"
	"testing"
	"time"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{150, 2},
		{399, 2},
		{400, 3},
		{450, 3},
		{899, 3},
		{900, 4},
		{10000, 11},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelForXPMatchesFormula(t *testing.T) {
	for xp := 0; xp <= 5000; xp += 7 {
		want := int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
		if got := LevelForXP(xp); got != want {
			t.Fatalf("LevelForXP(%d) = %d, want %d", xp, got, want)
		}
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 1; xp <= 5000; xp++ {
		cur := LevelForXP(xp)
		if cur < prev {
			t.Fatalf("level decreased from %d to %d at xp=%d", prev, cur, xp)
		}
		prev = cur
	}
}

func TestAddXP(t *testing.T) {
	p := &UserProfile{XP: 0, Level: 1}

	if levelUp := p.AddXP(50); levelUp {
		t.Error("50 XP should not level up from level 1")
	}
	if p.XP != 50 || p.Level != 1 {
		t.Errorf("after 50 XP: got xp=%d level=%d, want 50/1", p.XP, p.Level)
	}

	if levelUp := p.AddXP(100); !levelUp {
		t.Error("crossing 100 XP should level up")
	}
	if p.XP != 150 || p.Level != 2 {
		t.Errorf("after 150 XP: got xp=%d level=%d, want 150/2", p.XP, p.Level)
	}

	// 150 + 300 = 450, which is past the 400 XP boundary for level 3.
	if levelUp := p.AddXP(300); !levelUp {
		t.Error("crossing 400 XP should level up")
	}
	if p.Level != 3 {
		t.Errorf("after 450 XP: got level %d, want 3", p.Level)
	}
}

func TestTouchStreak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 15, 30, 0, 0, time.UTC)
	}

	p := &UserProfile{}

	p.TouchStreak(day(1))
	if p.StreakCurrent != 1 || p.StreakLongest != 1 {
		t.Fatalf("first activity: got current=%d longest=%d, want 1/1", p.StreakCurrent, p.StreakLongest)
	}

	// A second quiz the same day leaves the streak alone.
	p.TouchStreak(day(1))
	if p.StreakCurrent != 1 {
		t.Fatalf("same-day activity changed streak to %d", p.StreakCurrent)
	}

	// Consecutive days extend it.
	p.TouchStreak(day(2))
	p.TouchStreak(day(3))
	if p.StreakCurrent != 3 || p.StreakLongest != 3 {
		t.Fatalf("after three consecutive days: got current=%d longest=%d, want 3/3", p.StreakCurrent, p.StreakLongest)
	}

	// A gap resets the current streak but keeps the longest.
	p.TouchStreak(day(10))
	if p.StreakCurrent != 1 {
		t.Errorf("gap should reset streak, got %d", p.StreakCurrent)
	}
	if p.StreakLongest != 3 {
		t.Errorf("longest streak should survive the reset, got %d", p.StreakLongest)
	}
}
