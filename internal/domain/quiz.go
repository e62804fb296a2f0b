package domain

import (
	"math"
	"time"
)

// Question is a multiple choice question attached to a topic or an exam.
type Question struct {
	ID            string   `json:"id"`
	ParentID      string   `json:"-"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"-"`
}

// QuizResult records one finished topic quiz.
type QuizResult struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	TopicID        string    `json:"topic_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

// PassMark is the minimum percentage that counts as a pass.
const PassMark = 50

// Grade counts the answers matching each question's correct option.
func Grade(questions []Question, answers map[string]string) int {
	correct := 0
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectOption {
			correct++
		}
	}
	return correct
}

// Percentage rounds correct/total to a whole percent, half up. Zero total scores 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
