package service

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound         = errors.New("post not found")
	ErrPostAlreadyPublished = errors.New("cannot edit a post that has already been published")
	ErrTwitterNotConnected  = errors.New("account is not connected to X. Please authenticate first")
)

// ValidationError marks bad input or a rejected publish/schedule attempt so
// handlers can answer with a client error instead of a server error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
