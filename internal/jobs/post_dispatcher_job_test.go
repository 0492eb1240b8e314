package job

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/transfer"
)

type fakePostRepo struct {
	due       []*models.Post
	listDueFn func(ctx context.Context, now time.Time) ([]*models.Post, error)
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, nil
}
func (f *fakePostRepo) Save(ctx context.Context, post *models.Post) error { return nil }
func (f *fakePostRepo) GetByID(ctx context.Context, id, userID int64) (*models.Post, error) {
	return nil, nil
}
func (f *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	if f.listDueFn != nil {
		return f.listDueFn(ctx, now)
	}
	return f.due, nil
}
func (f *fakePostRepo) List(ctx context.Context, userID int64, q *transfer.PostListQuery) ([]*models.Post, int, error) {
	return nil, 0, nil
}
func (f *fakePostRepo) CountByUserID(ctx context.Context, userID int64) (int, error) { return 0, nil }
func (f *fakePostRepo) CountByStatus(ctx context.Context, userID int64, status models.PostStatus) (int, error) {
	return 0, nil
}
func (f *fakePostRepo) Remove(ctx context.Context, id int64) error { return nil }

type fakePostService struct {
	publishFn func(ctx context.Context, post *models.Post) error
	published []int64
}

func (f *fakePostService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	return nil, nil
}
func (f *fakePostService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	return nil, nil
}
func (f *fakePostService) List(ctx context.Context, userID int64, q *transfer.PostListQuery) (*transfer.PostList, error) {
	return nil, nil
}
func (f *fakePostService) Stats(ctx context.Context, userID int64) (*transfer.PostStats, error) {
	return nil, nil
}
func (f *fakePostService) Update(ctx context.Context, userID, postID int64, up *transfer.PostUpdate) (*models.Post, error) {
	return nil, nil
}
func (f *fakePostService) Remove(ctx context.Context, userID, postID int64) error { return nil }

func (f *fakePostService) PublishDue(ctx context.Context, post *models.Post) error {
	f.published = append(f.published, post.ID)
	if f.publishFn != nil {
		return f.publishFn(ctx, post)
	}
	return nil
}

func duePosts(ids ...int64) []*models.Post {
	posts := make([]*models.Post, len(ids))
	for i, id := range ids {
		posts[i] = &models.Post{
			ID:           id,
			Status:       models.PostStatusScheduled,
			ScheduledFor: time.Now().Add(-time.Duration(len(ids)-i) * time.Minute),
		}
	}
	return posts
}

func TestDispatchPublishesInScheduledOrder(t *testing.T) {
	pr := &fakePostRepo{due: duePosts(3, 1, 2)}
	ps := &fakePostService{}
	j := NewPostDispatcherJob(pr, ps)

	published, failed, err := j.RunNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, published)
	assert.Zero(t, failed)
	assert.Equal(t, []int64{3, 1, 2}, ps.published)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	pr := &fakePostRepo{due: duePosts(1, 2, 3)}
	ps := &fakePostService{
		publishFn: func(ctx context.Context, post *models.Post) error {
			if post.ID == 2 {
				return errors.New("duplicate content")
			}
			return nil
		},
	}
	j := NewPostDispatcherJob(pr, ps)

	published, failed, err := j.RunNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []int64{1, 2, 3}, ps.published)
}

func TestDispatchListFailure(t *testing.T) {
	pr := &fakePostRepo{
		listDueFn: func(ctx context.Context, now time.Time) ([]*models.Post, error) {
			return nil, errors.New("db unavailable")
		},
	}
	ps := &fakePostService{}
	j := NewPostDispatcherJob(pr, ps)

	published, failed, err := j.RunNow(context.Background())

	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Zero(t, failed)
	assert.Empty(t, ps.published)
}

func TestDispatchRefusesOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	pr := &fakePostRepo{due: duePosts(1)}
	ps := &fakePostService{
		publishFn: func(ctx context.Context, post *models.Post) error {
			close(started)
			<-release
			return nil
		},
	}
	j := NewPostDispatcherJob(pr, ps)

	done := make(chan struct{})
	go func() {
		defer close(done)
		j.RunNow(context.Background())
	}()

	<-started
	_, _, err := j.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrDispatchInProgress)

	close(release)
	<-done
}
