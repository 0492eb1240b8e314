package job

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/rcamargo/postwing/internal/repository"
	"github.com/rcamargo/postwing/internal/service"
)

var ErrDispatchInProgress = errors.New("dispatch already in progress")

// PostDispatcherJob runs on a timer and pushes every due scheduled post
// through the publish path. Posts are handled one at a time, in scheduled
// order, and a failing post never stops the rest of the batch.
type PostDispatcherJob struct {
	pr repository.PostRepository
	ps service.PostService
	mu sync.Mutex
}

func NewPostDispatcherJob(
	pr repository.PostRepository,
	ps service.PostService) *PostDispatcherJob {
	return &PostDispatcherJob{
		pr: pr,
		ps: ps,
	}
}

func (j *PostDispatcherJob) DispatchDue() {
	if !j.mu.TryLock() {
		log.Println("Previous dispatch still running, skipping tick")
		return
	}
	defer j.mu.Unlock()

	j.run(context.Background(), time.Now())
}

// RunNow triggers a dispatch outside the timer. It refuses to overlap a
// running dispatch instead of queueing behind it.
func (j *PostDispatcherJob) RunNow(ctx context.Context) (published, failed int, err error) {
	if !j.mu.TryLock() {
		return 0, 0, ErrDispatchInProgress
	}
	defer j.mu.Unlock()

	published, failed = j.run(ctx, time.Now())
	return published, failed, nil
}

func (j *PostDispatcherJob) run(ctx context.Context, now time.Time) (published, failed int) {
	posts, err := j.pr.ListDue(ctx, now)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0
	}

	for _, post := range posts {
		if err := j.ps.PublishDue(ctx, post); err != nil {
			failed++
			log.Printf("Error publishing post %d: %v", post.ID, err)
			continue
		}
		published++
	}

	if published+failed > 0 {
		log.Printf("Dispatch finished: %d published, %d failed", published, failed)
	}
	return published, failed
}
