package queue

import (
	"github.com/rcamargo/postwing/internal/repository"
	"github.com/rcamargo/postwing/internal/service"
)

type Queue struct {
	ur     repository.UserRepository
	mailer service.MailerService
}

func NewQueue(
	ur repository.UserRepository,
	mailer service.MailerService) *Queue {
	return &Queue{
		ur:     ur,
		mailer: mailer,
	}
}

const TaskTypeNotifyPost = "notify:post"

// NotifyPostPayload carries a snapshot of the post at notification time, so
// the worker does not depend on the row still existing unchanged.
type NotifyPostPayload struct {
	PostID       int64  `json:"post_id"`
	UserID       int64  `json:"user_id"`
	Status       string `json:"status"`
	Text         string `json:"text"`
	RemoteID     string `json:"remote_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
