package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/repository"
	"github.com/rcamargo/postwing/internal/transfer"
)

// Notifier delivers publish-outcome notifications. Failures are logged by
// the caller and never affect the publishing flow.
type Notifier interface {
	NotifyPublished(ctx context.Context, post *models.Post) error
	NotifyFailed(ctx context.Context, post *models.Post) error
}

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	List(ctx context.Context, userID int64, q *transfer.PostListQuery) (*transfer.PostList, error)
	Stats(ctx context.Context, userID int64) (*transfer.PostStats, error)
	Update(ctx context.Context, userID, postID int64, up *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error

	// PublishDue drives one due post through the same publish path the
	// immediate-creation flow uses. Called by the dispatcher.
	PublishDue(ctx context.Context, post *models.Post) error
}

type postService struct {
	pr       repository.PostRepository
	ur       repository.UserRepository
	tw       TwitterService
	media    MediaService
	notifier Notifier
}

func NewPostService(
	pr repository.PostRepository,
	ur repository.UserRepository,
	tw TwitterService,
	media MediaService,
	notifier Notifier) PostService {
	return &postService{
		pr:       pr,
		ur:       ur,
		tw:       tw,
		media:    media,
		notifier: notifier,
	}
}

// minScheduleLead is the single threshold deciding synthetic-schedule vs.
// immediate publish, evaluated against wall-clock time at call time.
const minScheduleLead = 5 * time.Minute

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, NewValidationError("post data is missing")
	}
	if strings.TrimSpace(pc.Text) == "" {
		return nil, NewValidationError("text cannot be empty")
	}
	if len(pc.MediaPaths) > maxMediaPerPost {
		return nil, NewValidationError("a post can have at most %d media files", maxMediaPerPost)
	}
	if err := s.checkTextLimit(ctx, userID, pc.Text); err != nil {
		return nil, err
	}

	scheduledFor, err := time.Parse(time.RFC3339, pc.ScheduledFor)
	if err != nil {
		return nil, NewValidationError("invalid scheduled time: %v", err)
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !status.IsValid() {
		return nil, NewValidationError("invalid status %q", string(pc.Status))
	}

	post := &models.Post{
		UserID:       userID,
		Text:         pc.Text,
		MediaPaths:   pc.MediaPaths,
		ScheduledFor: scheduledFor,
		Status:       status,
	}

	// Media is uploaded before the scheduling decision; the publish step
	// depends on the resulting ids.
	if len(post.MediaPaths) > 0 {
		mediaIDs, err := s.tw.UploadMedia(ctx, userID, post.MediaPaths)
		if err != nil {
			post.Status = models.PostStatusFailed
			post.ErrorMessage = err.Error()
		} else {
			post.MediaIDs = mediaIDs
		}
	}

	if _, err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	now := time.Now()

	if post.Status == models.PostStatusScheduled {
		remoteID, err := s.tw.Schedule(ctx, userID, post.ScheduledFor)
		if err != nil {
			s.markFailed(ctx, post, err)
			return nil, NewValidationError("failed to schedule post: %s", err.Error())
		}

		post.RemoteID = remoteID
		if err := s.pr.Save(ctx, post); err != nil {
			return nil, fmt.Errorf("error saving post: %w", err)
		}
	}

	if post.Status != models.PostStatusFailed &&
		(post.ScheduledFor.Before(now.Add(minScheduleLead)) || post.Status == models.PostStatusPosted) {
		remoteID, err := s.tw.Publish(ctx, userID, publishParamsFor(post))
		if err != nil {
			s.markFailed(ctx, post, err)
			return nil, NewValidationError("failed to publish post: %s", err.Error())
		}

		post.RemoteID = remoteID
		post.Status = models.PostStatusPosted
		post.ErrorMessage = ""
		if err := s.pr.Save(ctx, post); err != nil {
			return nil, fmt.Errorf("error saving post: %w", err)
		}
	}

	return post, nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64, q *transfer.PostListQuery) (*transfer.PostList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Status != "" && !q.Status.IsValid() {
		return nil, NewValidationError("invalid status %q", string(q.Status))
	}

	posts, total, err := s.pr.List(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return &transfer.PostList{
		Data: posts,
		Meta: transfer.ListMeta{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

func (s *postService) Stats(ctx context.Context, userID int64) (*transfer.PostStats, error) {
	stats := &transfer.PostStats{}

	var err error
	if stats.Total, err = s.pr.CountByUserID(ctx, userID); err != nil {
		return nil, err
	}

	counts := []struct {
		status models.PostStatus
		dest   *int
	}{
		{models.PostStatusDraft, &stats.Draft},
		{models.PostStatusScheduled, &stats.Scheduled},
		{models.PostStatusPosted, &stats.Posted},
		{models.PostStatusFailed, &stats.Failed},
		{models.PostStatusDisabled, &stats.Disabled},
	}
	for _, c := range counts {
		if *c.dest, err = s.pr.CountByStatus(ctx, userID, c.status); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (s *postService) Update(ctx context.Context, userID, postID int64, up *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.Status == models.PostStatusPosted {
		return nil, ErrPostAlreadyPublished
	}

	if up.Status != "" && !up.Status.IsValid() {
		return nil, NewValidationError("invalid status %q", string(up.Status))
	}
	if len(up.MediaPaths) > maxMediaPerPost {
		return nil, NewValidationError("a post can have at most %d media files", maxMediaPerPost)
	}
	if up.Text != "" {
		if err := s.checkTextLimit(ctx, userID, up.Text); err != nil {
			return nil, err
		}
	}

	var newScheduledFor time.Time
	if up.ScheduledFor != "" {
		if newScheduledFor, err = time.Parse(time.RFC3339, up.ScheduledFor); err != nil {
			return nil, NewValidationError("invalid scheduled time: %v", err)
		}
	}

	prevStatus := post.Status

	// A post already scheduled on the remote side needs its old placeholder
	// removed before content or timing changes take effect.
	needsReschedule := post.Status == models.PostStatusScheduled && post.RemoteID != "" &&
		(up.Text != "" || up.ScheduledFor != "" || len(up.MediaPaths) > 0)

	if needsReschedule {
		if _, err := s.tw.Delete(ctx, userID, post.RemoteID); err != nil {
			log.Printf("Failed to delete post %s from X during update: %v", post.RemoteID, err)
		}
	}

	if up.Text != "" {
		post.Text = up.Text
	}
	if len(up.MediaPaths) > 0 {
		post.MediaPaths = up.MediaPaths
		mediaIDs, err := s.tw.UploadMedia(ctx, userID, up.MediaPaths)
		if err != nil {
			post.Status = models.PostStatusFailed
			post.ErrorMessage = err.Error()
		} else {
			post.MediaIDs = mediaIDs
		}
	}

	// An explicit status always wins over the automatic inference below.
	if up.Status != "" {
		post.Status = up.Status
	}

	if up.ScheduledFor != "" {
		post.ScheduledFor = newScheduledFor

		// Auto-recovery: a failed post whose schedule moved to the future
		// goes back to scheduled, unless the caller set a status explicitly.
		if up.Status == "" && prevStatus == models.PostStatusFailed && newScheduledFor.After(time.Now()) {
			post.Status = models.PostStatusScheduled
			post.ErrorMessage = ""
		}
	}

	if post.Status == models.PostStatusScheduled && (needsReschedule || post.RemoteID == "") {
		remoteID, err := s.tw.Schedule(ctx, userID, post.ScheduledFor)
		if err != nil {
			s.markFailed(ctx, post, err)
			return nil, NewValidationError("failed to schedule post: %s", err.Error())
		}
		post.RemoteID = remoteID
		post.ErrorMessage = ""
	}

	if err := s.pr.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("error saving post: %w", err)
	}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if post.RemoteID != "" {
		result, err := s.tw.Delete(ctx, userID, post.RemoteID)
		if err != nil {
			log.Printf("Failed to delete post %s from X: %v", post.RemoteID, err)
		} else if result.AlreadyDeleted {
			log.Printf("Post %s already deleted from X, removing locally", post.RemoteID)
		}
	}

	// Media files for a posted post have already been transmitted; only
	// not-yet-posted posts still own local files.
	if post.Status != models.PostStatusPosted && len(post.MediaPaths) > 0 {
		s.cleanupMedia(ctx, post)
	}

	if err := s.pr.Remove(ctx, post.ID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}

func (s *postService) PublishDue(ctx context.Context, post *models.Post) error {
	remoteID, err := s.tw.Publish(ctx, post.UserID, publishParamsFor(post))
	if err != nil {
		post.Status = models.PostStatusFailed
		post.ErrorMessage = err.Error()
		if saveErr := s.pr.Save(ctx, post); saveErr != nil {
			slog.Error(saveErr.Error())
		}
		if notifyErr := s.notifier.NotifyFailed(ctx, post); notifyErr != nil {
			log.Printf("Failed to enqueue failure notification for post %d: %v", post.ID, notifyErr)
		}
		return err
	}

	post.Status = models.PostStatusPosted
	post.RemoteID = remoteID
	post.ErrorMessage = ""
	if err := s.pr.Save(ctx, post); err != nil {
		return fmt.Errorf("error saving post: %w", err)
	}

	if notifyErr := s.notifier.NotifyPublished(ctx, post); notifyErr != nil {
		log.Printf("Failed to enqueue publish notification for post %d: %v", post.ID, notifyErr)
	}

	s.cleanupMedia(ctx, post)

	log.Printf("Post %d published, remote id %s", post.ID, remoteID)
	return nil
}

func (s *postService) checkTextLimit(ctx context.Context, userID int64, text string) error {
	maxChars := models.DefaultMaxPostChars
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user != nil && user.MaxPostChars > 0 {
		maxChars = user.MaxPostChars
	}

	if utf8.RuneCountInString(text) > maxChars {
		return NewValidationError("text exceeds the %d character limit", maxChars)
	}
	return nil
}

func (s *postService) markFailed(ctx context.Context, post *models.Post, cause error) {
	post.Status = models.PostStatusFailed
	post.ErrorMessage = cause.Error()
	if err := s.pr.Save(ctx, post); err != nil {
		slog.Error(err.Error())
	}
}

func (s *postService) cleanupMedia(ctx context.Context, post *models.Post) {
	for _, mediaPath := range post.MediaPaths {
		if err := s.media.DeleteFile(ctx, mediaPath); err != nil {
			log.Printf("Failed to delete media file %s: %v", mediaPath, err)
		}
	}
}

// publishParamsFor sends media ids when the upload already happened and
// falls back to the raw paths otherwise.
func publishParamsFor(post *models.Post) *PublishParams {
	params := &PublishParams{Text: post.Text, MediaIDs: post.MediaIDs}
	if len(post.MediaIDs) == 0 {
		params.MediaPaths = post.MediaPaths
	}
	return params
}
