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

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements newest first, with author names resolved.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT a.id, a.title, a.body, a.created_by, a.created_at, COALESCE(u.full_name, '') AS author_name
FROM announcements a LEFT JOIN users u ON u.id = a.created_by
ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.Announcement
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM announcements"); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	return rows, total, nil
}

// GetByID returns a single announcement.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	const query = `SELECT a.id, a.title, a.body, a.created_by, a.created_at, COALESCE(u.full_name, '') AS author_name
FROM announcements a LEFT JOIN users u ON u.id = a.created_by
WHERE a.id = $1 LIMIT 1`
	var ann models.Announcement
	if err := r.db.GetContext(ctx, &ann, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &ann, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, ann *models.Announcement) error {
	if ann.ID == "" {
		ann.ID = uuid.NewString()
	}
	if ann.CreatedAt.IsZero() {
		ann.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO announcements (id, title, body, created_by, created_at) VALUES (:id, :title, :body, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ann); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Count returns the total number of announcements.
func (r *AnnouncementRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM announcements"); err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}
	return total, nil
}
