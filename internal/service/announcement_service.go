package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
}

// AnnouncementService handles announcement workflows. Announcements are
// immutable once posted.
type AnnouncementService struct {
	repo       announcementRepository
	validator  *validator.Validate
	logger     *zap.Logger
	dashboards DashboardInvalidator
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger}
}

// SetDashboardInvalidator registers the dashboard cache to drop after writes.
func (s *AnnouncementService) SetDashboardInvalidator(d DashboardInvalidator) {
	s.dashboards = d
}

// AnnouncementListRequest describes filters for listing announcements.
type AnnouncementListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// CreateAnnouncementRequest describes the create payload.
type CreateAnnouncementRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	CreatedBy string `json:"created_by" validate:"required"`
}

// List returns announcements with pagination, newest first.
func (s *AnnouncementService) List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, *models.Pagination, error) {
	filter := models.AnnouncementFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	ann, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return ann, nil
}

// Create posts a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	ann := &models.Announcement{
		Title:     req.Title,
		Body:      req.Body,
		CreatedBy: req.CreatedBy,
	}
	if err := s.repo.Create(ctx, ann); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	s.logger.Info("announcement posted", zap.String("announcement_id", ann.ID), zap.String("created_by", req.CreatedBy))
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx)
	}
	return ann, nil
}
