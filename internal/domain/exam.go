package domain

import "time"

// Exam is a timed set of questions.
type Exam struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationMinutes *int   `json:"duration_minutes"`
}

// ExamResult records one submitted exam.
type ExamResult struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	StudentID string    `json:"student_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ExamSession is an exam attempt in progress.
type ExamSession struct {
	ID        string            `json:"id"`
	ExamID    string            `json:"exam_id"`
	StudentID string            `json:"student_id"`
	StartedAt time.Time         `json:"started_at"`
	Deadline  time.Time         `json:"deadline"`
	Answers   map[string]string `json:"answers"`
	Submitted bool              `json:"submitted"`
	Score     *int              `json:"score,omitempty"`
}

// Remaining returns the time left before the deadline, never negative.
func (s *ExamSession) Remaining(now time.Time) time.Duration {
	left := s.Deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the deadline has passed.
func (s *ExamSession) Expired(now time.Time) bool {
	return !now.Before(s.Deadline)
}
