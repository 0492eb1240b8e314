package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/rcamargo/postwing/internal/models"
)

// Notifier enqueues notification tasks for the worker to deliver. It is the
// producer half of the queue and satisfies service.Notifier.
type Notifier struct {
	client *asynq.Client
}

func NewNotifier(client *asynq.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) NotifyPublished(ctx context.Context, post *models.Post) error {
	return n.enqueue(ctx, post)
}

func (n *Notifier) NotifyFailed(ctx context.Context, post *models.Post) error {
	return n.enqueue(ctx, post)
}

func (n *Notifier) enqueue(ctx context.Context, post *models.Post) error {
	payload := NotifyPostPayload{
		PostID:       post.ID,
		UserID:       post.UserID,
		Status:       string(post.Status),
		Text:         post.Text,
		RemoteID:     post.RemoteID,
		ErrorMessage: post.ErrorMessage,
	}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeNotifyPost, taskPayload)

	_, err = n.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	log.Printf("Notification task enqueued: %+v", payload)
	return nil
}
