package models

import "time"

// Discussion is a thread opened by a teacher.
type Discussion struct {
	ID         string    `db:"id" json:"id"`
	Topic      string    `db:"topic" json:"topic"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	AuthorName string    `db:"author_name" json:"author_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DiscussionPost is an append-only reply inside a thread.
type DiscussionPost struct {
	ID           string    `db:"id" json:"id"`
	DiscussionID string    `db:"discussion_id" json:"discussion_id"`
	AuthorID     string    `db:"author_id" json:"author_id"`
	Body         string    `db:"body" json:"body"`
	AuthorName   string    `db:"author_name" json:"author_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DiscussionFilter scopes discussion listings.
type DiscussionFilter struct {
	Page     int
	PageSize int
}

// DiscussionDetail aggregates a thread with its posts, oldest first.
type DiscussionDetail struct {
	Discussion Discussion       `json:"discussion"`
	Posts      []DiscussionPost `json:"posts"`
}
