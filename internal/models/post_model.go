package models

import (
	"time"

	"github.com/lib/pq"
)

// PostStatus is the closed set of lifecycle states a post can be in.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
	PostStatusDisabled  PostStatus = "disabled"
)

func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPosted, PostStatusFailed, PostStatusDisabled:
		return true
	}
	return false
}

type Post struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	Text         string         `db:"text" json:"text"`
	MediaPaths   pq.StringArray `db:"media_paths" json:"media_paths"`
	MediaIDs     pq.StringArray `db:"media_ids" json:"media_ids"`
	ScheduledFor time.Time      `db:"scheduled_for" json:"scheduled_for"`
	Status       PostStatus     `db:"status" json:"status"`
	RemoteID     string         `db:"remote_id" json:"remote_id,omitempty"`
	ErrorMessage string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
