package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type discussionRepository interface {
	List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, int, error)
	GetByID(ctx context.Context, id string) (*models.Discussion, error)
	Create(ctx context.Context, discussion *models.Discussion) error
	ListPosts(ctx context.Context, discussionID string) ([]models.DiscussionPost, error)
	CreatePost(ctx context.Context, post *models.DiscussionPost) error
}

// DiscussionService handles discussion threads and replies. Any authenticated
// user can open a thread or post to one.
type DiscussionService struct {
	repo       discussionRepository
	validator  *validator.Validate
	logger     *zap.Logger
	dashboards DashboardInvalidator
}

// NewDiscussionService constructs the service.
func NewDiscussionService(repo discussionRepository, validate *validator.Validate, logger *zap.Logger) *DiscussionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscussionService{repo: repo, validator: validate, logger: logger}
}

// SetDashboardInvalidator registers the dashboard cache to drop after writes.
func (s *DiscussionService) SetDashboardInvalidator(d DashboardInvalidator) {
	s.dashboards = d
}

// DiscussionListRequest describes filters for listing threads.
type DiscussionListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// CreateDiscussionRequest describes the thread create payload.
type CreateDiscussionRequest struct {
	Topic     string `json:"topic" validate:"required"`
	CreatedBy string `json:"created_by" validate:"required"`
}

// CreatePostRequest describes the reply payload.
type CreatePostRequest struct {
	Body     string `json:"body" validate:"required"`
	AuthorID string `json:"author_id" validate:"required"`
}

// List returns threads with pagination, newest first.
func (s *DiscussionService) List(ctx context.Context, req DiscussionListRequest) ([]models.Discussion, *models.Pagination, error) {
	filter := models.DiscussionFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discussions")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a thread with its posts in chronological order.
func (s *DiscussionService) Get(ctx context.Context, id string) (*models.DiscussionDetail, error) {
	discussion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion")
	}

	posts, err := s.repo.ListPosts(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion posts")
	}

	return &models.DiscussionDetail{Discussion: *discussion, Posts: posts}, nil
}

// Create opens a new thread.
func (s *DiscussionService) Create(ctx context.Context, req CreateDiscussionRequest) (*models.Discussion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discussion payload")
	}

	discussion := &models.Discussion{
		Topic:     req.Topic,
		CreatedBy: req.CreatedBy,
	}
	if err := s.repo.Create(ctx, discussion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create discussion")
	}

	s.logger.Info("discussion opened", zap.String("discussion_id", discussion.ID), zap.String("created_by", req.CreatedBy))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return discussion, nil
}

// AddPost appends a reply to an existing thread.
func (s *DiscussionService) AddPost(ctx context.Context, discussionID string, req CreatePostRequest) (*models.DiscussionPost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	if _, err := s.repo.GetByID(ctx, discussionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion")
	}

	post := &models.DiscussionPost{
		DiscussionID: discussionID,
		AuthorID:     req.AuthorID,
		Body:         req.Body,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	return post, nil
}
