package models

// ContentCounts aggregates how much content exists per type.
type ContentCounts struct {
	Announcements int `db:"announcements" json:"announcements"`
	Assignments   int `db:"assignments" json:"assignments"`
	Discussions   int `db:"discussions" json:"discussions"`
	Quizzes       int `db:"quizzes" json:"quizzes"`
}

// DashboardSummary is the role-specific landing payload. The averages are
// only present for students; the grading backlog only for teachers.
type DashboardSummary struct {
	Role           UserRole      `json:"role"`
	Counts         ContentCounts `json:"counts"`
	AvgSubmission  *float64      `json:"avg_submission_score,omitempty"`
	AvgQuizScore   *float64      `json:"avg_quiz_score,omitempty"`
	PendingGrading *int          `json:"pending_grading,omitempty"`
}
