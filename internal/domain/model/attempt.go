package model

import "time"

// Choice labels accepted for multiple-choice answers.
const (
	ChoiceA = "A"
	ChoiceB = "B"
	ChoiceC = "C"
	ChoiceD = "D"
)

// ValidChoice reports whether c is inside the allowed option set.
func ValidChoice(c string) bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// QuizAttempt is the immutable record of one graded submission.
// Attempts are append-only history; they are never mutated after creation.
type QuizAttempt struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ExamType        string    `json:"exam_type"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectAnswers  int       `json:"correct_answers"`
	ScorePercentage float64   `json:"score_percentage"`
	XPEarned        int       `json:"xp_earned"`
	ElapsedSeconds  int       `json:"elapsed_seconds"`
	CompletedAt     time.Time `json:"completed_at"`
	UserUsername    *string   `json:"user_username,omitempty"` // For display
}

// AnswerRecord is one graded answer inside an attempt; created atomically
// with its parent attempt.
type AnswerRecord struct {
	ID              string    `json:"id"`
	AttemptID       string    `json:"attempt_id"`
	QuestionID      string    `json:"question_id"`
	SubmittedChoice string    `json:"submitted_choice"`
	CorrectChoice   string    `json:"correct_choice"`
	IsCorrect       bool      `json:"is_correct"`
	TimeSpentMs     int       `json:"time_spent_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// AttemptStats is the cumulative snapshot the achievement evaluator
// consumes right after a submission is committed.
type AttemptStats struct {
	TotalQuizzes           int            `json:"total_quizzes"`
	PerfectQuizzes         int            `json:"perfect_quizzes"`
	HighScoreQuizzes       int            `json:"high_score_quizzes"`
	LifetimeCorrectAnswers int            `json:"lifetime_correct_answers"`
	Level                  int            `json:"level"`
	QuizzesByExamType      map[string]int `json:"quizzes_by_exam_type"`
}
