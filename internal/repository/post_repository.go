package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/transfer"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	Save(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, userID int64) (*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	List(ctx context.Context, userID int64, q *transfer.PostListQuery) ([]*models.Post, int, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	CountByStatus(ctx context.Context, userID int64, status models.PostStatus) (int, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, text, COALESCE(media_paths, '{}'), COALESCE(media_ids, '{}'),
	scheduled_for, status, COALESCE(remote_id, ''), COALESCE(error_message, ''), created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Text,
		&post.MediaPaths,
		&post.MediaIDs,
		&post.ScheduledFor,
		&post.Status,
		&post.RemoteID,
		&post.ErrorMessage,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, text, media_paths, media_ids, scheduled_for, status, remote_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at, updated_at
	`

	args := []any{
		post.UserID,
		post.Text,
		pq.StringArray(post.MediaPaths),
		pq.StringArray(post.MediaIDs),
		post.ScheduledFor,
		post.Status,
		post.RemoteID,
		post.ErrorMessage,
	}

	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return post.ID, nil
}

// Save writes every mutable field in a single UPDATE so that status,
// remote_id and error_message are never observed half-updated.
func (r *postRepository) Save(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET text = $1,
			media_paths = $2,
			media_ids = $3,
			scheduled_for = $4,
			status = $5,
			remote_id = NULLIF($6, ''),
			error_message = NULLIF($7, ''),
			updated_at = $8
		WHERE id = $9
	`

	post.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		post.Text,
		pq.StringArray(post.MediaPaths),
		pq.StringArray(post.MediaIDs),
		post.ScheduledFor,
		post.Status,
		post.RemoteID,
		post.ErrorMessage,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = $1 AND user_id = $2`, postColumns)

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
	`, postColumns)

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) List(ctx context.Context, userID int64, q *transfer.PostListQuery) ([]*models.Post, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND text ILIKE $%d", len(args))
	}
	if q.DateFrom != "" {
		args = append(args, q.DateFrom)
		where += fmt.Sprintf(" AND scheduled_for >= $%d", len(args))
	}
	if q.DateTo != "" {
		args = append(args, q.DateTo)
		where += fmt.Sprintf(" AND scheduled_for <= $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM posts " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	query := fmt.Sprintf(`SELECT %s FROM posts %s ORDER BY scheduled_for ASC LIMIT $%d OFFSET $%d`,
		postColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	return posts, total, rows.Err()
}

func (r *postRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) CountByStatus(ctx context.Context, userID int64, status models.PostStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND status = $2`, userID, status).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
