package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/rcamargo/postwing/configs"
	"github.com/rcamargo/postwing/internal/repository"
	"github.com/rcamargo/postwing/internal/transfer"
	"github.com/rcamargo/postwing/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	twitterAPIBaseURL    = "https://api.x.com"
	twitterUploadBaseURL = "https://upload.twitter.com"
	twitterAuthURL       = "https://x.com/i/oauth2/authorize"

	// Synthetic remote ids carry this prefix until the dispatcher replaces
	// them with the real id returned by the publish call.
	ScheduledIDPrefix = "scheduled_"
)

type PublishParams struct {
	Text       string
	MediaIDs   []string
	MediaPaths []string
}

type DeleteResult struct {
	Deleted        bool
	AlreadyDeleted bool
}

// TwitterService talks to the X API on behalf of a single user per call.
// Clients are derived from stored credentials, never shared globally.
type TwitterService interface {
	AuthURL(state, verifier string) string
	Callback(ctx context.Context, code, verifier string, userID int64) error
	ConnectionStatus(ctx context.Context, userID int64) (*transfer.TwitterStatus, error)
	Disconnect(ctx context.Context, userID int64) error
	UploadMedia(ctx context.Context, userID int64, mediaPaths []string) ([]string, error)
	Publish(ctx context.Context, userID int64, p *PublishParams) (string, error)
	Schedule(ctx context.Context, userID int64, scheduledFor time.Time) (string, error)
	Delete(ctx context.Context, userID int64, remoteID string) (*DeleteResult, error)
	RefreshCredentials(ctx context.Context, userID int64) error
}

type twitterService struct {
	cfg           cfg.Config
	ur            repository.UserRepository
	media         MediaStore
	httpClient    *http.Client
	apiBaseURL    string
	uploadBaseURL string
}

func NewTwitterService(c cfg.Config, ur repository.UserRepository, media MediaStore) TwitterService {
	return &twitterService{
		cfg:           c,
		ur:            ur,
		media:         media,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiBaseURL:    twitterAPIBaseURL,
		uploadBaseURL: twitterUploadBaseURL,
	}
}

type apiError struct {
	StatusCode int
	Detail     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("X API error (%d): %s", e.StatusCode, e.Detail)
}

func isAuthError(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized
}

func isNotFoundError(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(ae.Detail), "not found")
}

func (s *twitterService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.TwitterClientID,
		ClientSecret: s.cfg.TwitterClientSecret,
		RedirectURL:  s.cfg.TwitterRedirectURI,
		Scopes:       []string{"tweet.read", "tweet.write", "users.read", "media.write", "offline.access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   twitterAuthURL,
			TokenURL:  s.apiBaseURL + "/2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (s *twitterService) AuthURL(state, verifier string) string {
	return s.oauthConfig().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (s *twitterService) Callback(ctx context.Context, code, verifier string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauthConfig().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	userData, err := s.fetchUserData(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	maxChars := maxCharsForVerifiedType(userData.VerifiedType)

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	if err := s.ur.SetTwitterTokens(ctx, userID, encryptedAccessToken, encryptedRefreshToken, token.Expiry); err != nil {
		return err
	}
	if err := s.ur.SetTwitterProfile(ctx, userID, userData.ID, userData.Username, userData.VerifiedType, maxChars); err != nil {
		return err
	}

	log.Printf("X account @%s connected for user %d (limit %d chars)", userData.Username, userID, maxChars)
	return nil
}

func maxCharsForVerifiedType(verifiedType string) int {
	switch verifiedType {
	case "blue":
		return 25000
	case "business":
		return 4000
	default:
		return 280
	}
}

func (s *twitterService) fetchUserData(ctx context.Context, accessToken string) (*transfer.TwitterUserData, error) {
	var result transfer.TwitterUserResponse
	url := s.apiBaseURL + "/2/users/me?user.fields=verified,verified_type"
	if err := s.doRequest(ctx, accessToken, http.MethodGet, url, nil, "", &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &result.Data, nil
}

func (s *twitterService) ConnectionStatus(ctx context.Context, userID int64) (*transfer.TwitterStatus, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.AccessToken == "" {
		return &transfer.TwitterStatus{Connected: false}, nil
	}

	return &transfer.TwitterStatus{
		Connected:    true,
		Username:     user.TwitterUsername,
		VerifiedType: user.TwitterVerifiedType,
		MaxPostChars: user.MaxPostChars,
	}, nil
}

func (s *twitterService) Disconnect(ctx context.Context, userID int64) error {
	return s.ur.ClearTwitterAccount(ctx, userID)
}

// accessTokenFor derives a fresh per-user bearer token from stored
// credentials; there is no shared client state.
func (s *twitterService) accessTokenFor(ctx context.Context, userID int64) (string, error) {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.AccessToken == "" {
		return "", ErrTwitterNotConnected
	}
	return utils.Decrypt(user.AccessToken, []byte(s.cfg.SecretKey))
}

// withAuthRetry runs call with the user's access token. A single 401 triggers
// one credential refresh and one retry; any further failure propagates.
func (s *twitterService) withAuthRetry(ctx context.Context, userID int64, call func(token string) error) error {
	token, err := s.accessTokenFor(ctx, userID)
	if err != nil {
		return err
	}

	err = call(token)
	if err == nil || !isAuthError(err) {
		return err
	}

	log.Printf("Access token rejected for user %d, attempting refresh", userID)
	if refreshErr := s.RefreshCredentials(ctx, userID); refreshErr != nil {
		slog.Info(refreshErr.Error())
		return fmt.Errorf("authentication failed, please reconnect your X account: %w", refreshErr)
	}

	token, err = s.accessTokenFor(ctx, userID)
	if err != nil {
		return err
	}
	return call(token)
}

func (s *twitterService) RefreshCredentials(ctx context.Context, userID int64) error {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.RefreshToken == "" {
		return errors.New("no refresh token available, please re-authenticate")
	}

	refreshToken, err := utils.Decrypt(user.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	token, err := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to refresh access token: %w", err)
	}

	newRefreshToken := token.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(newRefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	if err := s.ur.SetTwitterTokens(ctx, userID, encryptedAccessToken, encryptedRefreshToken, token.Expiry); err != nil {
		return err
	}

	log.Printf("Access token refreshed for user %d", userID)
	return nil
}

func (s *twitterService) UploadMedia(ctx context.Context, userID int64, mediaPaths []string) ([]string, error) {
	if len(mediaPaths) == 0 {
		return nil, nil
	}

	var mediaIDs []string
	err := s.withAuthRetry(ctx, userID, func(token string) error {
		ids, err := s.uploadWithToken(ctx, token, mediaPaths)
		if err != nil {
			return err
		}
		mediaIDs = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mediaIDs, nil
}

func (s *twitterService) uploadWithToken(ctx context.Context, token string, mediaPaths []string) ([]string, error) {
	mediaIDs := make([]string, 0, len(mediaPaths))

	for _, mediaPath := range mediaPaths {
		data, err := s.media.Read(ctx, path.Base(mediaPath))
		if err != nil {
			return nil, fmt.Errorf("failed to upload media %s: %w", mediaPath, err)
		}

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("media", path.Base(mediaPath))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		var result transfer.MediaUploadResponse
		url := s.uploadBaseURL + "/1.1/media/upload.json"
		if err := s.doRequest(ctx, token, http.MethodPost, url, &body, writer.FormDataContentType(), &result); err != nil {
			return nil, err
		}

		log.Printf("Media uploaded: %s -> %s", mediaPath, result.MediaIDString)
		mediaIDs = append(mediaIDs, result.MediaIDString)
	}

	return mediaIDs, nil
}

// Publish posts immediately and returns the real remote id. When the params
// carry media paths instead of ids, the files are uploaded first.
func (s *twitterService) Publish(ctx context.Context, userID int64, p *PublishParams) (string, error) {
	var remoteID string

	err := s.withAuthRetry(ctx, userID, func(token string) error {
		mediaIDs := p.MediaIDs
		if len(mediaIDs) == 0 && len(p.MediaPaths) > 0 {
			ids, err := s.uploadWithToken(ctx, token, p.MediaPaths)
			if err != nil {
				return err
			}
			mediaIDs = ids
		}

		tweet := transfer.TweetRequest{Text: p.Text}
		if len(mediaIDs) > 0 {
			tweet.Media = &transfer.TweetMedia{MediaIDs: mediaIDs}
		}

		payload, err := json.Marshal(tweet)
		if err != nil {
			return err
		}

		var result transfer.TweetResponse
		url := s.apiBaseURL + "/2/tweets"
		if err := s.doRequest(ctx, token, http.MethodPost, url, bytes.NewReader(payload), "application/json", &result); err != nil {
			return err
		}

		remoteID = result.Data.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	return remoteID, nil
}

// Schedule validates the time window and hands back a placeholder id. The X
// API has no native scheduling endpoint, so the actual publish happens later
// through the dispatcher.
func (s *twitterService) Schedule(ctx context.Context, userID int64, scheduledFor time.Time) (string, error) {
	minScheduleTime := time.Now().Add(5 * time.Minute)
	if scheduledFor.Before(minScheduleTime) {
		return "", NewValidationError("scheduled time must be at least 5 minutes in the future")
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return ScheduledIDPrefix + id, nil
}

// Delete removes a remote post. A 404-class response means the post is
// already gone, which counts as success.
func (s *twitterService) Delete(ctx context.Context, userID int64, remoteID string) (*DeleteResult, error) {
	var result transfer.TweetDeleteResponse

	err := s.withAuthRetry(ctx, userID, func(token string) error {
		url := s.apiBaseURL + "/2/tweets/" + remoteID
		return s.doRequest(ctx, token, http.MethodDelete, url, nil, "", &result)
	})
	if err != nil {
		if isNotFoundError(err) {
			log.Printf("Post %s already deleted or not found on X", remoteID)
			return &DeleteResult{Deleted: true, AlreadyDeleted: true}, nil
		}
		return nil, fmt.Errorf("failed to delete post from X: %w", err)
	}

	return &DeleteResult{Deleted: result.Data.Deleted}, nil
}

func (s *twitterService) doRequest(ctx context.Context, token, method, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		var errResp transfer.TwitterErrorResponse
		_ = json.Unmarshal(raw, &errResp)

		detail := errResp.Detail
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		return &apiError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	return nil
}
