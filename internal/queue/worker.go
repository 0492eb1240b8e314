package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/rcamargo/postwing/internal/models"
)

func (q *Queue) HandleNotifyPostTask(ctx context.Context, task *asynq.Task) error {
	var payload NotifyPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.deliverNotification(ctx, payload)
}

func (q *Queue) deliverNotification(ctx context.Context, payload NotifyPostPayload) error {
	user, err := q.ur.GetByID(ctx, payload.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("User %d for post %d no longer exists, dropping notification", payload.UserID, payload.PostID)
		return nil
	}

	post := &models.Post{
		ID:           payload.PostID,
		UserID:       payload.UserID,
		Text:         payload.Text,
		Status:       models.PostStatus(payload.Status),
		RemoteID:     payload.RemoteID,
		ErrorMessage: payload.ErrorMessage,
	}

	switch post.Status {
	case models.PostStatusPosted:
		err = q.mailer.SendPostPublished(user, post)
	case models.PostStatusFailed:
		err = q.mailer.SendPostFailed(user, post)
	default:
		log.Printf("No notification for post %d in status %s", post.ID, post.Status)
		return nil
	}

	if err != nil {
		log.Printf("Error sending notification for post %d: %v", post.ID, err)
		return err
	}
	return nil
}
