package errors

import "errors"

// OAuth protocol errors.
var (
	ErrStateMismatch       = errors.New("oauth state does not match")
	ErrMissingRefreshToken = errors.New("missing refresh token from auth server token endpoint")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotAuthorized       = errors.New("no token, authorization required")
)

// Provider API errors.
var (
	ErrRateLimited      = errors.New("API rate limit reached")
	ErrTrackNotFound    = errors.New("activity has no track")
	ErrStreamIncomplete = errors.New("activity stream incomplete")
	ErrAPIRequest       = errors.New("API request failed")
	ErrAPIResponse      = errors.New("unexpected API response")
)
