package dto

// SetupProfileRequest completes a profile after sign-up.
type SetupProfileRequest struct {
	FullName   string  `json:"full_name" validate:"required,notblank,max=120"`
	ClassLevel *string `json:"class_level" validate:"omitempty,class_level"`
}

// QuizSubmitRequest maps question id to the chosen option.
type QuizSubmitRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// ExamAnswerRequest records one answer in a running exam.
type ExamAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Option     string `json:"option" validate:"required"`
}

// CreateClassroomRequest payload for teachers.
type CreateClassroomRequest struct {
	Name string `json:"name" validate:"required,notblank,max=80"`
}

// JoinClassroomRequest payload for students.
type JoinClassroomRequest struct {
	Code string `json:"code" validate:"required"`
}

// LinkChildRequest payload for parents.
type LinkChildRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ChangeRoleRequest payload for staff management.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher parent admin"`
}
