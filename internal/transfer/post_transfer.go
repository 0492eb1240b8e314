package transfer

import "github.com/rcamargo/postwing/internal/models"

// PostCreation is the create request shape. ScheduledFor is RFC 3339.
type PostCreation struct {
	Text         string            `json:"text"`
	MediaPaths   []string          `json:"media_paths,omitempty"`
	ScheduledFor string            `json:"scheduled_for"`
	Status       models.PostStatus `json:"status,omitempty"`
}

// PostUpdate is a partial of PostCreation. Zero values mean "not provided";
// an empty status is never valid, so "" doubles as the absent marker.
type PostUpdate struct {
	Text         string            `json:"text,omitempty"`
	MediaPaths   []string          `json:"media_paths,omitempty"`
	ScheduledFor string            `json:"scheduled_for,omitempty"`
	Status       models.PostStatus `json:"status,omitempty"`
}

type PostListQuery struct {
	Status   models.PostStatus
	Search   string
	Page     int
	Limit    int
	DateFrom string
	DateTo   string
}

type ListMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type PostList struct {
	Data []*models.Post `json:"data"`
	Meta ListMeta       `json:"meta"`
}

type PostStats struct {
	Total     int `json:"total"`
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Posted    int `json:"posted"`
	Failed    int `json:"failed"`
	Disabled  int `json:"disabled"`
}
