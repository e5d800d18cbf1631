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

// DiscussionRepository provides persistence for discussion threads and posts.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository creates the repository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// List returns discussions newest first, with author names resolved.
func (r *DiscussionRepository) List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT d.id, d.topic, d.created_by, d.created_at, COALESCE(u.full_name, '') AS author_name
FROM discussions d LEFT JOIN users u ON u.id = d.created_by
ORDER BY d.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.Discussion
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list discussions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM discussions"); err != nil {
		return nil, 0, fmt.Errorf("count discussions: %w", err)
	}

	return rows, total, nil
}

// GetByID returns a single discussion.
func (r *DiscussionRepository) GetByID(ctx context.Context, id string) (*models.Discussion, error) {
	const query = `SELECT d.id, d.topic, d.created_by, d.created_at, COALESCE(u.full_name, '') AS author_name
FROM discussions d LEFT JOIN users u ON u.id = d.created_by
WHERE d.id = $1 LIMIT 1`
	var discussion models.Discussion
	if err := r.db.GetContext(ctx, &discussion, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get discussion: %w", err)
	}
	return &discussion, nil
}

// Create inserts a new discussion thread.
func (r *DiscussionRepository) Create(ctx context.Context, discussion *models.Discussion) error {
	if discussion.ID == "" {
		discussion.ID = uuid.NewString()
	}
	if discussion.CreatedAt.IsZero() {
		discussion.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussions (id, topic, created_by, created_at) VALUES (:id, :topic, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, discussion); err != nil {
		return fmt.Errorf("create discussion: %w", err)
	}
	return nil
}

// Count returns the total number of discussions.
func (r *DiscussionRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM discussions"); err != nil {
		return 0, fmt.Errorf("count discussions: %w", err)
	}
	return total, nil
}

// ListPosts returns posts for a thread, oldest first, with author names.
func (r *DiscussionRepository) ListPosts(ctx context.Context, discussionID string) ([]models.DiscussionPost, error) {
	const query = `SELECT p.id, p.discussion_id, p.author_id, p.body, p.created_at, COALESCE(u.full_name, '') AS author_name
FROM discussion_posts p LEFT JOIN users u ON u.id = p.author_id
WHERE p.discussion_id = $1 ORDER BY p.created_at ASC`
	var posts []models.DiscussionPost
	if err := r.db.SelectContext(ctx, &posts, query, discussionID); err != nil {
		return nil, fmt.Errorf("list discussion posts: %w", err)
	}
	return posts, nil
}

// CreatePost appends a post to a thread.
func (r *DiscussionRepository) CreatePost(ctx context.Context, post *models.DiscussionPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussion_posts (id, discussion_id, author_id, body, created_at) VALUES (:id, :discussion_id, :author_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create discussion post: %w", err)
	}
	return nil
}
