package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/repository"
	"github.com/rcamargo/postwing/internal/service"
)

type TokenRefreshJob struct {
	ur repository.UserRepository
	tw service.TwitterService
}

func NewTokenRefreshJob(
	ur repository.UserRepository,
	tw service.TwitterService) *TokenRefreshJob {
	return &TokenRefreshJob{
		ur: ur,
		tw: tw,
	}
}

// RefreshTokens renews X access tokens that expire within the next half
// hour, so scheduled posts do not fail on a stale token mid-dispatch.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	users, err := c.ur.ListByTokenExpiry(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, user := range users {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(user *models.User) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.tw.RefreshCredentials(ctx, user.ID); err != nil {
				slog.Info("Unable to refresh X tokens for user " + user.Email)
			}
		}(user)
	}

	wg.Wait()
}
