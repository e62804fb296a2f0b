package domain

import "time"

// Classroom groups students under a teacher and is joined by code.
type Classroom struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// ChildSummary is a student linked to a parent account.
type ChildSummary struct {
	StudentID    string  `json:"student_id"`
	FullName     string  `json:"full_name"`
	ClassLevel   *string `json:"class_level"`
	QuizzesTaken int     `json:"quizzes_taken"`
}

// LeaderboardEntry ranks one student by accumulated quiz points.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	StudentID  string  `json:"id"`
	Name       string  `json:"name"`
	ClassLevel *string `json:"class"`
	Points     int     `json:"points"`
}
