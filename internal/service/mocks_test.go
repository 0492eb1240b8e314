package service

import (
	"context"
	"database/sql"
	"mime/multipart"
	"time"

	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/transfer"
)

type mockPostRepo struct {
	createFn func(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	saveFn   func(ctx context.Context, post *models.Post) error
	getFn    func(ctx context.Context, id, userID int64) (*models.Post, error)
	listFn   func(ctx context.Context, userID int64, q *transfer.PostListQuery) ([]*models.Post, int, error)
	removeFn func(ctx context.Context, id int64) error

	created []*models.Post
	saves   []models.Post
	removed []int64
}

func (m *mockPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, post)
	}
	post.ID = int64(len(m.created) + 1)
	m.created = append(m.created, post)
	return post.ID, nil
}

func (m *mockPostRepo) Save(ctx context.Context, post *models.Post) error {
	m.saves = append(m.saves, *post)
	if m.saveFn != nil {
		return m.saveFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id, userID int64) (*models.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id, userID)
	}
	return nil, nil
}

func (m *mockPostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (m *mockPostRepo) List(ctx context.Context, userID int64, q *transfer.PostListQuery) ([]*models.Post, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, q)
	}
	return nil, 0, nil
}

func (m *mockPostRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func (m *mockPostRepo) CountByStatus(ctx context.Context, userID int64, status models.PostStatus) (int, error) {
	return 0, nil
}

func (m *mockPostRepo) Remove(ctx context.Context, id int64) error {
	m.removed = append(m.removed, id)
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	user *models.User

	getFn func(ctx context.Context, id int64) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	return 1, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return m.user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	if m.user != nil && m.user.Email == email {
		return m.user, true, nil
	}
	return nil, false, nil
}

func (m *mockUserRepo) SetTwitterTokens(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	if m.user != nil {
		m.user.AccessToken = accessToken
		m.user.RefreshToken = refreshToken
		m.user.TokenExpiresAt = expiresAt
	}
	return nil
}

func (m *mockUserRepo) SetTwitterProfile(ctx context.Context, userID int64, twitterUserID, username, verifiedType string, maxPostChars int) error {
	if m.user != nil {
		m.user.TwitterUserID = twitterUserID
		m.user.TwitterUsername = username
		m.user.TwitterVerifiedType = verifiedType
		m.user.MaxPostChars = maxPostChars
	}
	return nil
}

func (m *mockUserRepo) ClearTwitterAccount(ctx context.Context, userID int64) error {
	if m.user != nil {
		m.user.AccessToken = ""
		m.user.RefreshToken = ""
		m.user.MaxPostChars = models.DefaultMaxPostChars
	}
	return nil
}

func (m *mockUserRepo) ListByTokenExpiry(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	return nil, nil
}

type mockTwitter struct {
	scheduleFn func(ctx context.Context, userID int64, scheduledFor time.Time) (string, error)
	publishFn  func(ctx context.Context, userID int64, p *PublishParams) (string, error)
	deleteFn   func(ctx context.Context, userID int64, remoteID string) (*DeleteResult, error)
	uploadFn   func(ctx context.Context, userID int64, mediaPaths []string) ([]string, error)

	scheduleCalls int
	publishCalls  int
	deleteCalls   []string
}

func (m *mockTwitter) AuthURL(state, verifier string) string { return "" }

func (m *mockTwitter) Callback(ctx context.Context, code, verifier string, userID int64) error {
	return nil
}

func (m *mockTwitter) ConnectionStatus(ctx context.Context, userID int64) (*transfer.TwitterStatus, error) {
	return &transfer.TwitterStatus{}, nil
}

func (m *mockTwitter) Disconnect(ctx context.Context, userID int64) error { return nil }

func (m *mockTwitter) UploadMedia(ctx context.Context, userID int64, mediaPaths []string) ([]string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, userID, mediaPaths)
	}
	ids := make([]string, len(mediaPaths))
	for i := range mediaPaths {
		ids[i] = "media_" + mediaPaths[i]
	}
	return ids, nil
}

func (m *mockTwitter) Publish(ctx context.Context, userID int64, p *PublishParams) (string, error) {
	m.publishCalls++
	if m.publishFn != nil {
		return m.publishFn(ctx, userID, p)
	}
	return "90001", nil
}

func (m *mockTwitter) Schedule(ctx context.Context, userID int64, scheduledFor time.Time) (string, error) {
	m.scheduleCalls++
	if m.scheduleFn != nil {
		return m.scheduleFn(ctx, userID, scheduledFor)
	}
	return ScheduledIDPrefix + "abc123", nil
}

func (m *mockTwitter) Delete(ctx context.Context, userID int64, remoteID string) (*DeleteResult, error) {
	m.deleteCalls = append(m.deleteCalls, remoteID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, remoteID)
	}
	return &DeleteResult{Deleted: true}, nil
}

func (m *mockTwitter) RefreshCredentials(ctx context.Context, userID int64) error { return nil }

type mockMedia struct {
	deleteFn func(ctx context.Context, name string) error
	deleted  []string
}

func (m *mockMedia) SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	return nil, nil
}

func (m *mockMedia) DeleteFile(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

type mockNotifier struct {
	publishedFn func(ctx context.Context, post *models.Post) error
	failedFn    func(ctx context.Context, post *models.Post) error

	published []int64
	failed    []int64
}

func (m *mockNotifier) NotifyPublished(ctx context.Context, post *models.Post) error {
	m.published = append(m.published, post.ID)
	if m.publishedFn != nil {
		return m.publishedFn(ctx, post)
	}
	return nil
}

func (m *mockNotifier) NotifyFailed(ctx context.Context, post *models.Post) error {
	m.failed = append(m.failed, post.ID)
	if m.failedFn != nil {
		return m.failedFn(ctx, post)
	}
	return nil
}
