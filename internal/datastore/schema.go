package datastore

// DefaultSchema is every table reachable through the generic interface.
var DefaultSchema = Schema{
	"profiles":           {"id", "role", "full_name", "class_level", "email", "current_streak", "last_active_date", "is_premium", "created_at", "updated_at"},
	"subjects":           {"id", "name", "level", "created_at"},
	"topics":             {"id", "subject_id", "title", "created_at"},
	"lessons":            {"id", "topic_id", "classroom_id", "title", "content", "image_url", "video_url", "created_at"},
	"questions":          {"id", "topic_id", "question_text", "options", "correct_option", "created_at"},
	"exams":              {"id", "subject_id", "classroom_id", "title", "duration_minutes", "created_at"},
	"exam_questions":     {"id", "exam_id", "question_text", "options", "correct_option", "created_at"},
	"quiz_results":       {"id", "student_id", "topic_id", "score", "total_questions", "created_at"},
	"exam_results":       {"id", "exam_id", "student_id", "score", "created_at"},
	"classrooms":         {"id", "teacher_id", "name", "code", "created_at"},
	"classroom_students": {"classroom_id", "student_id", "joined_at"},
	"class_posts":        {"id", "classroom_id", "body", "created_at"},
	"parent_students":    {"parent_id", "student_id", "created_at"},
}
