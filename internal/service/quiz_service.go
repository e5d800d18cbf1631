package service

import (
	"context"
	"database/sql"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type quizRepository interface {
	List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int, error)
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	ListQuestions(ctx context.Context, quizID string) ([]models.QuizQuestion, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	GetAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error)
}

// QuizService handles quiz authoring and auto-scored attempts.
type QuizService struct {
	repo       quizRepository
	validator  *validator.Validate
	logger     *zap.Logger
	dashboards DashboardInvalidator
}

// NewQuizService constructs the service.
func NewQuizService(repo quizRepository, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{repo: repo, validator: validate, logger: logger}
}

// SetDashboardInvalidator registers the dashboard cache to drop after writes.
func (s *QuizService) SetDashboardInvalidator(d DashboardInvalidator) {
	s.dashboards = d
}

// QuizListRequest describes filters for listing quizzes.
type QuizListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// CreateQuizQuestion is one question in the authoring payload.
type CreateQuizQuestion struct {
	Prompt  string `json:"prompt" validate:"required"`
	ChoiceA string `json:"choice_a" validate:"required"`
	ChoiceB string `json:"choice_b" validate:"required"`
	ChoiceC string `json:"choice_c" validate:"required"`
	ChoiceD string `json:"choice_d" validate:"required"`
	Correct string `json:"correct" validate:"required"`
}

// CreateQuizRequest describes the authoring payload.
type CreateQuizRequest struct {
	Title     string               `json:"title" validate:"required"`
	Questions []CreateQuizQuestion `json:"questions" validate:"required,min=1,dive"`
	CreatedBy string               `json:"created_by" validate:"required"`
}

// SubmitAttemptRequest maps question IDs to the student's picks. Questions
// left out of the map count as blank.
type SubmitAttemptRequest struct {
	Answers   map[string]string `json:"answers"`
	StudentID string            `json:"student_id" validate:"required"`
}

// List returns quizzes with pagination, newest first.
func (s *QuizService) List(ctx context.Context, req QuizListRequest) ([]models.Quiz, *models.Pagination, error) {
	filter := models.QuizFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a quiz scoped to the viewer. Students get sanitized questions
// and their own attempt. The owning teacher gets the answer key and every
// attempt; other teachers get sanitized questions and the attempts.
func (s *QuizService) Get(ctx context.Context, id string, viewerID string, viewerRole models.UserRole) (*models.QuizDetail, error) {
	quiz, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	questions, err := s.repo.ListQuestions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz questions")
	}

	detail := &models.QuizDetail{Quiz: *quiz}

	if viewerRole == models.RoleTeacher {
		attempts, err := s.repo.ListAttempts(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz attempts")
		}
		detail.Attempts = attempts
		if quiz.CreatedBy == viewerID {
			detail.Key = questions
		} else {
			detail.Questions = sanitizeQuestions(questions)
		}
		return detail, nil
	}

	detail.Questions = sanitizeQuestions(questions)
	attempt, err := s.repo.GetAttempt(ctx, id, viewerID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz attempt")
	}
	detail.Attempt = attempt
	return detail, nil
}

// Create authors a quiz with its questions.
func (s *QuizService) Create(ctx context.Context, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}

	questions := make([]models.QuizQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		correct := models.QuizChoice(q.Correct)
		if !correct.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "correct answer must be one of A, B, C, D")
		}
		questions = append(questions, models.QuizQuestion{
			Prompt:  q.Prompt,
			ChoiceA: q.ChoiceA,
			ChoiceB: q.ChoiceB,
			ChoiceC: q.ChoiceC,
			ChoiceD: q.ChoiceD,
			Correct: correct,
		})
	}

	quiz := &models.Quiz{
		Title:     req.Title,
		CreatedBy: req.CreatedBy,
		Questions: questions,
	}
	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}

	s.logger.Info("quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.String("created_by", req.CreatedBy),
		zap.Int("questions", len(questions)))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return quiz, nil
}

// SubmitAttempt scores a student's single pass over a quiz. The score is a
// percentage of correct answers, fixed at submission time. A second attempt
// is rejected as a conflict.
func (s *QuizService) SubmitAttempt(ctx context.Context, quizID string, req SubmitAttemptRequest) (*models.QuizAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}

	if _, err := s.repo.GetByID(ctx, quizID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	questions, err := s.repo.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz questions")
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "quiz has no questions")
	}

	correct := 0
	answers := make([]models.QuizAnswer, 0, len(questions))
	for _, q := range questions {
		answer := models.QuizAnswer{QuestionID: q.ID}
		if raw, ok := req.Answers[q.ID]; ok {
			pick := models.QuizChoice(raw)
			if !pick.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, "answers must be one of A, B, C, D")
			}
			answer.Answer = &pick
			if pick == q.Correct {
				correct++
			}
		}
		answers = append(answers, answer)
	}

	score := math.Round(float64(correct)/float64(len(questions))*10000) / 100

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: req.StudentID,
		Score:     score,
		Answers:   answers,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "quiz already attempted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save quiz attempt")
	}

	s.logger.Info("quiz attempt scored",
		zap.String("quiz_id", quizID),
		zap.String("student_id", req.StudentID),
		zap.Float64("score", score))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return attempt, nil
}

func sanitizeQuestions(questions []models.QuizQuestion) []models.QuizQuestionView {
	views := make([]models.QuizQuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return views
}
