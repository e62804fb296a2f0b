package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventSessionEnded    EventType = "session_ended"
	EventProfileUpdated  EventType = "profile_updated"
	EventQuizSubmitted   EventType = "quiz_submitted"
	EventExamSubmitted   EventType = "exam_submitted"
	EventClassroomJoined EventType = "classroom_joined"
	EventChildLinked     EventType = "child_linked"
	EventRoleChanged     EventType = "role_changed"
	EventAccountDeleted  EventType = "account_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload accompanies session events.
type SessionPayload struct {
	TokenID string `json:"token_id"`
}

// QuizSubmittedPayload payload.
type QuizSubmittedPayload struct {
	TopicID string `json:"topic_id"`
	Score   int    `json:"score"`
}

// ExamSubmittedPayload payload.
type ExamSubmittedPayload struct {
	ExamID    string `json:"exam_id"`
	SessionID string `json:"session_id"`
	Score     int    `json:"score"`
	Automatic bool   `json:"automatic"`
}

// MembershipPayload accompanies classroom and parent link events.
type MembershipPayload struct {
	TargetID string `json:"target_id"`
}

// RoleChangedPayload accompanies EventRoleChanged. Event.UserID is the changed user.
type RoleChangedPayload struct {
	ActorID string `json:"actor_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
