package models

import (
	"errors"
	"fmt"
	"time"
)

// Common errors surfaced by the store and the permission gates. All are
// local to the session that triggered them; only transport errors end a
// session.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Board / content errors
	ErrBoardNotFound  = errors.New("board not found")
	ErrDuplicateBoard = errors.New("board already exists")
	ErrThreadNotFound = errors.New("thread not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrMailNotFound   = errors.New("mail not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrFeedNotFound   = errors.New("feed not found")
	ErrDuplicateFeed  = errors.New("feed already exists")
	ErrScriptNotFound = errors.New("script not found")
	ErrFolderTooDeep  = errors.New("folder nesting too deep")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")
	ErrLastSysOp        = errors.New("cannot remove the last active sysop")
	ErrCannotModifySelf = errors.New("cannot change own role")
)

// ValidationError reports a user-input constraint violation. Handlers
// re-prompt with a localized message instead of propagating it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitedError reports a denied gate with the wait until the next
// token becomes available.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// IsRateLimited extracts a RateLimitedError when err carries one.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
