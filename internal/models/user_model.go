package models

import "time"

const DefaultMaxPostChars = 280

type User struct {
	ID                  int64     `db:"id" json:"id"`
	GoogleID            string    `db:"google_id" json:"google_id"`
	Email               string    `db:"email" json:"email"`
	Name                string    `db:"name" json:"name"`
	ProfilePicture      string    `db:"profile_picture" json:"profile_picture"`
	TwitterUserID       string    `db:"twitter_user_id" json:"twitter_user_id,omitempty"`
	TwitterUsername     string    `db:"twitter_username" json:"twitter_username,omitempty"`
	TwitterVerifiedType string    `db:"twitter_verified_type" json:"twitter_verified_type,omitempty"`
	MaxPostChars        int       `db:"max_post_chars" json:"max_post_chars"`
	AccessToken         string    `db:"twitter_access_token" json:"-"`
	RefreshToken        string    `db:"twitter_refresh_token" json:"-"`
	TokenExpiresAt      time.Time `db:"token_expires_at" json:"-"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
