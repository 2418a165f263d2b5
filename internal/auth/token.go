package auth

import (
	"time"

	"golang.org/x/oauth2"

	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
)

// DefaultLeeway is subtracted from a token's lifetime so a request never
// starts with a token about to lapse in flight.
const DefaultLeeway = 10 * time.Second

// Token is an access/refresh token pair issued by the provider. A zero
// Expiry means the lifetime is unknown and the token is treated as
// never expiring. Token values are not modified after creation; a
// refresh produces a new Token.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// Validate converts a provider token response. Responses without a
// refresh token are rejected since the session could not outlive the
// first access token.
func Validate(t *oauth2.Token) (*Token, error) {
	if t == nil || t.RefreshToken == "" {
		return nil, autherrors.ErrMissingRefreshToken
	}

	return &Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}, nil
}

// IsExpired reports whether the token expires within leeway of now.
func (t *Token) IsExpired(now time.Time, leeway time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}

	return !now.Add(leeway).Before(t.Expiry)
}

// Bearer returns the access token as a bearer credential.
func (t *Token) Bearer() Bearer {
	return Bearer(t.AccessToken)
}

// Bearer is an access token ready for an Authorization header.
type Bearer string

// Header returns the Authorization header value.
func (b Bearer) Header() string {
	return "Bearer " + string(b)
}

// String hides the secret so a Bearer can be logged safely.
func (b Bearer) String() string {
	if b == "" {
		return "<none>"
	}

	return "<redacted>"
}
