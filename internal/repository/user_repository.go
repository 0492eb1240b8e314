package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/rcamargo/postwing/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	SetTwitterTokens(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) error
	SetTwitterProfile(ctx context.Context, userID int64, twitterUserID, username, verifiedType string, maxPostChars int) error
	ClearTwitterAccount(ctx context.Context, userID int64) error
	ListByTokenExpiry(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, google_id, email, name, COALESCE(profile_picture, ''),
	COALESCE(twitter_user_id, ''), COALESCE(twitter_username, ''), COALESCE(twitter_verified_type, ''),
	max_post_chars, COALESCE(twitter_access_token, ''), COALESCE(twitter_refresh_token, ''),
	COALESCE(token_expires_at, 'epoch'), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Name,
		&user.ProfilePicture,
		&user.TwitterUserID,
		&user.TwitterUsername,
		&user.TwitterVerifiedType,
		&user.MaxPostChars,
		&user.AccessToken,
		&user.RefreshToken,
		&user.TokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (google_id, email, name, profile_picture, max_post_chars)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if user.MaxPostChars == 0 {
		user.MaxPostChars = models.DefaultMaxPostChars
	}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture, user.MaxPostChars).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture, user.MaxPostChars).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return user, true, nil
}

func (r *userRepository) SetTwitterTokens(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET twitter_access_token = $1,
			twitter_refresh_token = $2,
			token_expires_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) SetTwitterProfile(ctx context.Context, userID int64, twitterUserID, username, verifiedType string, maxPostChars int) error {
	query := `
		UPDATE users
		SET twitter_user_id = $1,
			twitter_username = $2,
			twitter_verified_type = $3,
			max_post_chars = $4,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, twitterUserID, username, verifiedType, maxPostChars, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) ClearTwitterAccount(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET twitter_user_id = NULL,
			twitter_username = NULL,
			twitter_verified_type = NULL,
			twitter_access_token = NULL,
			twitter_refresh_token = NULL,
			token_expires_at = NULL,
			max_post_chars = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.DefaultMaxPostChars, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ListByTokenExpiry returns users whose Twitter access token expires inside
// the given window and who still have a refresh token on file.
func (r *userRepository) ListByTokenExpiry(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE token_expires_at BETWEEN $1 AND $2
		AND twitter_refresh_token IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
