package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/rcamargo/postwing/configs"
	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/pkg/utils"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

func newTestTwitterService(t *testing.T, server *httptest.Server, ur *mockUserRepo) *twitterService {
	t.Helper()
	return &twitterService{
		cfg:           config.Config{SecretKey: testSecretKey, TwitterClientID: "client", TwitterClientSecret: "secret"},
		ur:            ur,
		media:         NewLocalMediaStore(t.TempDir()),
		httpClient:    server.Client(),
		apiBaseURL:    server.URL,
		uploadBaseURL: server.URL,
	}
}

func connectedUserRepo(t *testing.T, accessToken, refreshToken string) *mockUserRepo {
	t.Helper()

	encAccess, err := utils.Encrypt([]byte(accessToken), []byte(testSecretKey))
	require.NoError(t, err)
	encRefresh, err := utils.Encrypt([]byte(refreshToken), []byte(testSecretKey))
	require.NoError(t, err)

	return &mockUserRepo{user: &models.User{
		ID:           1,
		Email:        "u@example.com",
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		MaxPostChars: 280,
	}}
}

func TestPublishSendsTweet(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/tweets", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"90001","text":"hi"}}`))
	}))
	defer server.Close()

	s := newTestTwitterService(t, server, connectedUserRepo(t, "tok-1", "ref-1"))

	remoteID, err := s.Publish(context.Background(), 1, &PublishParams{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "90001", remoteID)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "hi", gotBody["text"])
	assert.NotContains(t, gotBody, "media")
}

func TestPublishRetriesOnceAfterRefresh(t *testing.T) {
	var tweetCalls, tokenCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/tweets":
			tweetCalls++
			if r.Header.Get("Authorization") != "Bearer tok-new" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"title":"Unauthorized","detail":"token expired","status":401}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"90002","text":"hi"}}`))
		case "/2/oauth2/token":
			tokenCalls++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-new","refresh_token":"ref-new","token_type":"bearer","expires_in":3600}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ur := connectedUserRepo(t, "tok-old", "ref-old")
	s := newTestTwitterService(t, server, ur)

	remoteID, err := s.Publish(context.Background(), 1, &PublishParams{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "90002", remoteID)
	assert.Equal(t, 2, tweetCalls)
	assert.Equal(t, 1, tokenCalls)

	storedAccess, err := utils.Decrypt(ur.user.AccessToken, []byte(testSecretKey))
	require.NoError(t, err)
	assert.Equal(t, "tok-new", storedAccess)
}

func TestPublishSecondUnauthorizedPropagates(t *testing.T) {
	var tweetCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/tweets":
			tweetCalls++
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"title":"Unauthorized","detail":"token revoked","status":401}`))
		case "/2/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-new","token_type":"bearer","expires_in":3600}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s := newTestTwitterService(t, server, connectedUserRepo(t, "tok-old", "ref-old"))

	_, err := s.Publish(context.Background(), 1, &PublishParams{Text: "hi"})

	require.Error(t, err)
	assert.Equal(t, 2, tweetCalls)
	assert.Contains(t, err.Error(), "token revoked")
}

func TestPublishNotConnected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	ur := &mockUserRepo{user: &models.User{ID: 1}}
	s := newTestTwitterService(t, server, ur)

	_, err := s.Publish(context.Background(), 1, &PublishParams{Text: "hi"})
	assert.ErrorIs(t, err, ErrTwitterNotConnected)
}

func TestDeleteTweet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/2/tweets/90001", r.URL.Path)
		w.Write([]byte(`{"data":{"deleted":true}}`))
	}))
	defer server.Close()

	s := newTestTwitterService(t, server, connectedUserRepo(t, "tok-1", "ref-1"))

	result, err := s.Delete(context.Background(), 1, "90001")

	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.False(t, result.AlreadyDeleted)
}

func TestDeleteMissingTweetCountsAsDeleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title":"Not Found Error","detail":"Could not find tweet with id: [90001].","status":404}`))
	}))
	defer server.Close()

	s := newTestTwitterService(t, server, connectedUserRepo(t, "tok-1", "ref-1"))

	result, err := s.Delete(context.Background(), 1, "90001")

	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.True(t, result.AlreadyDeleted)
}

func TestScheduleWindow(t *testing.T) {
	s := &twitterService{}

	_, err := s.Schedule(context.Background(), 1, time.Now().Add(4*time.Minute))
	assert.True(t, IsValidationError(err))

	id, err := s.Schedule(context.Background(), 1, time.Now().Add(6*time.Minute))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, ScheduledIDPrefix))
}

func TestMaxCharsForVerifiedType(t *testing.T) {
	assert.Equal(t, 25000, maxCharsForVerifiedType("blue"))
	assert.Equal(t, 4000, maxCharsForVerifiedType("business"))
	assert.Equal(t, 280, maxCharsForVerifiedType(""))
	assert.Equal(t, 280, maxCharsForVerifiedType("government"))
}

func TestConnectionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ur := connectedUserRepo(t, "tok-1", "ref-1")
	ur.user.TwitterUsername = "jdoe"
	ur.user.TwitterVerifiedType = "blue"
	ur.user.MaxPostChars = 25000

	s := newTestTwitterService(t, server, ur)

	status, err := s.ConnectionStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "jdoe", status.Username)
	assert.Equal(t, 25000, status.MaxPostChars)

	s = newTestTwitterService(t, server, &mockUserRepo{user: &models.User{ID: 2}})
	status, err = s.ConnectionStatus(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, status.Connected)
}
