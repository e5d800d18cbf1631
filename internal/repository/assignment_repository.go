package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classhub-api/internal/models"
)

// AssignmentRepository provides persistence for assignments and submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments newest first, with author names resolved.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT a.id, a.title, a.description, a.due_date, a.created_by, a.created_at, COALESCE(u.full_name, '') AS author_name
FROM assignments a LEFT JOIN users u ON u.id = a.created_by
ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.Assignment
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments"); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return rows, total, nil
}

// GetByID returns a single assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT a.id, a.title, a.description, a.due_date, a.created_by, a.created_at, COALESCE(u.full_name, '') AS author_name
FROM assignments a LEFT JOIN users u ON u.id = a.created_by
WHERE a.id = $1 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &assignment, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (id, title, description, due_date, created_by, created_at) VALUES (:id, :title, :description, :due_date, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Count returns the total number of assignments.
func (r *AssignmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments"); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return total, nil
}

// UpsertSubmission creates a submission or replaces the content of an
// existing one. An existing score and feedback survive re-submission.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, assignment_id, student_id, content, submitted_at)
VALUES (:id, :assignment_id, :student_id, :content, :submitted_at)
ON CONFLICT (assignment_id, student_id)
DO UPDATE SET content = EXCLUDED.content, submitted_at = EXCLUDED.submitted_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// GetSubmission returns a student's submission for an assignment.
func (r *AssignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, content, submitted_at, score, feedback, '' AS student_name
FROM submissions WHERE assignment_id = $1 AND student_id = $2 LIMIT 1`
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &sub, nil
}

// GetSubmissionByID returns a submission by identifier.
func (r *AssignmentRepository) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, content, submitted_at, score, feedback, '' AS student_name
FROM submissions WHERE id = $1 LIMIT 1`
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission by id: %w", err)
	}
	return &sub, nil
}

// ListSubmissions returns all submissions for an assignment, newest first,
// with student names resolved.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.content, s.submitted_at, s.score, s.feedback, COALESCE(u.full_name, '') AS student_name
FROM submissions s LEFT JOIN users u ON u.id = s.student_id
WHERE s.assignment_id = $1 ORDER BY s.submitted_at DESC`
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// GradeSubmission records a score and optional feedback.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id string, score float64, feedback *string) error {
	const query = `UPDATE submissions SET score = $2, feedback = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, feedback); err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	return nil
}

// AvgScoreByStudent returns the student's average graded submission score,
// or nil when nothing has been graded yet.
func (r *AssignmentRepository) AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, "SELECT AVG(score) FROM submissions WHERE student_id = $1", studentID); err != nil {
		return nil, fmt.Errorf("avg submission score: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// CountUngradedByTeacher returns how many submissions to the teacher's
// assignments still lack a score.
func (r *AssignmentRepository) CountUngradedByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions s
JOIN assignments a ON a.id = s.assignment_id
WHERE a.created_by = $1 AND s.score IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID); err != nil {
		return 0, fmt.Errorf("count ungraded submissions: %w", err)
	}
	return total, nil
}

// GradebookRows returns one row per graded or ungraded submission across all
// of the teacher's assignments, for export rendering.
func (r *AssignmentRepository) GradebookRows(ctx context.Context, teacherID string) ([]models.Submission, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.content, s.submitted_at, s.score, s.feedback, COALESCE(u.full_name, '') AS student_name
FROM submissions s
JOIN assignments a ON a.id = s.assignment_id
LEFT JOIN users u ON u.id = s.student_id
WHERE a.created_by = $1 ORDER BY a.created_at, s.submitted_at`
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, teacherID); err != nil {
		return nil, fmt.Errorf("gradebook rows: %w", err)
	}
	return subs, nil
}
