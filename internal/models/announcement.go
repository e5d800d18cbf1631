package models

import "time"

// Announcement represents a persisted announcement row. Announcements are
// immutable once posted; there is no update or delete path.
type Announcement struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Body       string    `db:"body" json:"body"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	AuthorName string    `db:"author_name" json:"author_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AnnouncementFilter scopes announcement listings.
type AnnouncementFilter struct {
	Page     int
	PageSize int
}
