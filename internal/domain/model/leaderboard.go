package model

type LeaderboardMetric string

const (
	MetricTotalXP      LeaderboardMetric = "total_xp"
	MetricQuizCount    LeaderboardMetric = "quiz_count"
	MetricAvgAccuracy  LeaderboardMetric = "avg_accuracy"
	MetricStreak       LeaderboardMetric = "streak"
	MetricExamAvgScore LeaderboardMetric = "exam_avg_score"
)

type TimeWindow string

const (
	WindowAllTime TimeWindow = "all_time"
	WindowWeekly  TimeWindow = "weekly"
	WindowMonthly TimeWindow = "monthly"
)

func ValidMetric(m LeaderboardMetric) bool {
	switch m {
	case MetricTotalXP, MetricQuizCount, MetricAvgAccuracy, MetricStreak, MetricExamAvgScore:
		return true
	}
	return false
}

func ValidWindow(w TimeWindow) bool {
	switch w {
	case WindowAllTime, WindowWeekly, WindowMonthly:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Value    float64 `json:"value"`
	Level    int     `json:"level"`
}

// UserRank is the requesting user's own standing, computed under the
// same filters as the ranked entries even when outside the top N.
type UserRank struct {
	Rank      int     `json:"rank"`
	Value     float64 `json:"value"`
	Qualified bool    `json:"qualified"`
}

type Leaderboard struct {
	Metric               LeaderboardMetric  `json:"metric"`
	Window               TimeWindow         `json:"window"`
	Entries              []LeaderboardEntry `json:"entries"`
	RequestingUser       *UserRank          `json:"requesting_user,omitempty"`
	TotalQualifyingUsers int                `json:"total_qualifying_users"`
}
