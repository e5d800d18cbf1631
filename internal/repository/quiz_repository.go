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

// QuizRepository provides persistence for quizzes, questions, and attempts.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository creates the repository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// List returns quizzes newest first, with author names resolved.
func (r *QuizRepository) List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT q.id, q.title, q.created_by, q.created_at, COALESCE(u.full_name, '') AS author_name
FROM quizzes q LEFT JOIN users u ON u.id = q.created_by
ORDER BY q.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.Quiz
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM quizzes"); err != nil {
		return nil, 0, fmt.Errorf("count quizzes: %w", err)
	}

	return rows, total, nil
}

// GetByID returns a single quiz without its questions.
func (r *QuizRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT q.id, q.title, q.created_by, q.created_at, COALESCE(u.full_name, '') AS author_name
FROM quizzes q LEFT JOIN users u ON u.id = q.created_by
WHERE q.id = $1 LIMIT 1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return &quiz, nil
}

// Create inserts a quiz and its questions in one transaction.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quiz tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const quizQuery = `INSERT INTO quizzes (id, title, created_by, created_at) VALUES (:id, :title, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, quizQuery, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}

	const questionQuery = `INSERT INTO quiz_questions (id, quiz_id, position, prompt, choice_a, choice_b, choice_c, choice_d, correct)
VALUES (:id, :quiz_id, :position, :prompt, :choice_a, :choice_b, :choice_c, :choice_d, :correct)`
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.QuizID = quiz.ID
		q.Position = i + 1
		if _, err := tx.NamedExecContext(ctx, questionQuery, q); err != nil {
			return fmt.Errorf("create quiz question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quiz tx: %w", err)
	}
	return nil
}

// Count returns the total number of quizzes.
func (r *QuizRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM quizzes"); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return total, nil
}

// ListQuestions returns the questions of a quiz in position order.
func (r *QuizRepository) ListQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error) {
	const query = `SELECT id, quiz_id, position, prompt, choice_a, choice_b, choice_c, choice_d, correct
FROM quiz_questions WHERE quiz_id = $1 ORDER BY position ASC`
	var questions []models.QuizQuestion
	if err := r.db.SelectContext(ctx, &questions, query, quizID); err != nil {
		return nil, fmt.Errorf("list quiz questions: %w", err)
	}
	return questions, nil
}

// CreateAttempt inserts an attempt and its answers in one transaction. The
// unique constraint on (quiz_id, student_id) surfaces as a unique violation
// passed through unwrapped so callers can detect the duplicate.
func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.SubmittedAt.IsZero() {
		attempt.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const attemptQuery = `INSERT INTO quiz_attempts (id, quiz_id, student_id, submitted_at, score)
VALUES (:id, :quiz_id, :student_id, :submitted_at, :score)`
	if _, err := tx.NamedExecContext(ctx, attemptQuery, attempt); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create quiz attempt: %w", err)
	}

	const answerQuery = `INSERT INTO quiz_answers (id, attempt_id, question_id, answer) VALUES (:id, :attempt_id, :question_id, :answer)`
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.AttemptID = attempt.ID
		if _, err := tx.NamedExecContext(ctx, answerQuery, a); err != nil {
			return fmt.Errorf("create quiz answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attempt tx: %w", err)
	}
	return nil
}

// GetAttempt returns a student's attempt for a quiz.
func (r *QuizRepository) GetAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, student_id, submitted_at, score, '' AS student_name
FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2 LIMIT 1`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, quizID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get quiz attempt: %w", err)
	}
	return &attempt, nil
}

// ListAttempts returns all attempts for a quiz, newest first, with student
// names resolved.
func (r *QuizRepository) ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error) {
	const query = `SELECT a.id, a.quiz_id, a.student_id, a.submitted_at, a.score, COALESCE(u.full_name, '') AS student_name
FROM quiz_attempts a LEFT JOIN users u ON u.id = a.student_id
WHERE a.quiz_id = $1 ORDER BY a.submitted_at DESC`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// AvgScoreByStudent returns the student's average quiz score, or nil when
// the student has not attempted any quiz.
func (r *QuizRepository) AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, "SELECT AVG(score) FROM quiz_attempts WHERE student_id = $1", studentID); err != nil {
		return nil, fmt.Errorf("avg quiz score: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
