package models

import "time"

// Assignment represents a piece of work posted by a teacher.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	AuthorName  string     `db:"author_name" json:"author_name,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Submission is a student's deliverable for an assignment. At most one
// submission exists per (assignment, student); re-submitting replaces the
// content but keeps any grade already given.
type Submission struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Content      string    `db:"content" json:"content"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
	Score        *float64  `db:"score" json:"score,omitempty"`
	Feedback     *string   `db:"feedback" json:"feedback,omitempty"`
	StudentName  string    `db:"student_name" json:"student_name,omitempty"`
}

// AssignmentFilter scopes assignment listings.
type AssignmentFilter struct {
	Page     int
	PageSize int
}

// AssignmentDetail aggregates an assignment with role-scoped submissions.
type AssignmentDetail struct {
	Assignment  Assignment   `json:"assignment"`
	Submission  *Submission  `json:"submission,omitempty"`
	Submissions []Submission `json:"submissions,omitempty"`
}
