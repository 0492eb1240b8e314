package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostStatusIsValid(t *testing.T) {
	valid := []PostStatus{
		PostStatusDraft,
		PostStatusScheduled,
		PostStatusPosted,
		PostStatusFailed,
		PostStatusDisabled,
	}
	for _, status := range valid {
		assert.True(t, status.IsValid(), string(status))
	}

	invalid := []PostStatus{"", "archived", "Draft", "SCHEDULED"}
	for _, status := range invalid {
		assert.False(t, status.IsValid(), string(status))
	}
}
