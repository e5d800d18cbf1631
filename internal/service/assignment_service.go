package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpsertSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error)
	GradeSubmission(ctx context.Context, id string, score float64, feedback *string) error
}

// AssignmentService handles assignment, submission, and grading workflows.
type AssignmentService struct {
	repo       assignmentRepository
	validator  *validator.Validate
	logger     *zap.Logger
	dashboards DashboardInvalidator
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, validator: validate, logger: logger}
}

// SetDashboardInvalidator registers the dashboard cache to drop after writes.
func (s *AssignmentService) SetDashboardInvalidator(d DashboardInvalidator) {
	s.dashboards = d
}

// AssignmentListRequest describes filters for listing assignments.
type AssignmentListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// CreateAssignmentRequest describes the create payload.
type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   string     `json:"created_by" validate:"required"`
}

// SubmitAssignmentRequest describes a student submission payload.
type SubmitAssignmentRequest struct {
	Content   string `json:"content" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// GradeSubmissionRequest describes the grading payload.
type GradeSubmissionRequest struct {
	Score    float64 `json:"score" validate:"min=0,max=100"`
	Feedback *string `json:"feedback"`
	GraderID string  `json:"grader_id" validate:"required"`
}

// List returns assignments with pagination, newest first.
func (s *AssignmentService) List(ctx context.Context, req AssignmentListRequest) ([]models.Assignment, *models.Pagination, error) {
	filter := models.AssignmentFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns an assignment scoped to the viewer: students see their own
// submission, teachers see every submission.
func (s *AssignmentService) Get(ctx context.Context, id string, viewerID string, viewerRole models.UserRole) (*models.AssignmentDetail, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	detail := &models.AssignmentDetail{Assignment: *assignment}

	switch viewerRole {
	case models.RoleTeacher:
		subs, err := s.repo.ListSubmissions(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
		}
		detail.Submissions = subs
	case models.RoleStudent:
		sub, err := s.repo.GetSubmission(ctx, id, viewerID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
		}
		detail.Submission = sub
	}

	return detail, nil
}

// Create posts a new assignment.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment := &models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment posted", zap.String("assignment_id", assignment.ID), zap.String("created_by", req.CreatedBy))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return assignment, nil
}

// Submit records or replaces a student's submission. A prior grade survives
// re-submission.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID string, req SubmitAssignmentRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	if _, err := s.repo.GetByID(ctx, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	sub := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    req.StudentID,
		Content:      req.Content,
	}
	if err := s.repo.UpsertSubmission(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}

	// Read back so the caller sees any grade that survived the upsert.
	saved, err := s.repo.GetSubmission(ctx, assignmentID, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload submission")
	}
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return saved, nil
}

// Grade records a score and feedback on a submission. Only the teacher who
// posted the assignment may grade its submissions.
func (s *AssignmentService) Grade(ctx context.Context, submissionID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	sub, err := s.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assignment, err := s.repo.GetByID(ctx, sub.AssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if assignment.CreatedBy != req.GraderID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assignment owner may grade submissions")
	}

	if err := s.repo.GradeSubmission(ctx, submissionID, req.Score, req.Feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}

	sub.Score = &req.Score
	sub.Feedback = req.Feedback
	s.logger.Info("submission graded",
		zap.String("submission_id", submissionID),
		zap.String("grader_id", req.GraderID),
		zap.Float64("score", req.Score))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return sub, nil
}
