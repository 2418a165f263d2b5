package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
)

// stateBytes is the number of random bytes in a CSRF state value.
const stateBytes = 16

// Config configures a Session for a single provider application.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string

	// AuthParams are extra query parameters for the authorization URL,
	// e.g. approval_prompt=force for Strava.
	AuthParams map[string]string

	// HTTPClient is used for token endpoint calls. Defaults to a client
	// with a 30 second timeout.
	HTTPClient *http.Client
}

type pendingAuth struct {
	state  string
	target string
}

// Session runs the OAuth2 authorization-code flow for a single user and
// holds the resulting token. It is not safe for concurrent use. Callers
// that share a Session must serialize access and should use the
// split-phase methods (VerifyState, Exchange, Refresh, Install) to keep
// provider calls outside their critical section.
type Session struct {
	oauth      *oauth2.Config
	authOpts   []oauth2.AuthCodeOption
	httpClient *http.Client
	logger     *slog.Logger

	pending *pendingAuth
	token   *Token

	now    func() time.Time
	leeway time.Duration
}

// NewSession creates a session with no token and no pending authorization.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(cfg.AuthParams))
	for k, v := range cfg.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	return &Session{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		authOpts:   opts,
		httpClient: httpClient,
		logger:     logger.With(slog.String("service", "oauth")),
		now:        time.Now,
		leeway:     DefaultLeeway,
	}
}

// Authorize starts a new authorization attempt and returns the provider
// URL the user agent should be sent to. Any earlier pending attempt is
// replaced. target is returned by a successful CompleteAuthorization.
func (s *Session) Authorize(target string) string {
	state := RandomHex(stateBytes)
	s.pending = &pendingAuth{state: state, target: target}

	return s.oauth.AuthCodeURL(state, s.authOpts...)
}

// VerifyState checks the state echoed by the provider against the
// pending attempt and returns its target. The pending attempt is left in
// place so a forged callback cannot cancel a genuine one.
func (s *Session) VerifyState(state string) (string, error) {
	if s.pending == nil {
		s.logger.Warn("callback without pending authorization")
		return "", autherrors.ErrStateMismatch
	}

	if subtle.ConstantTimeCompare([]byte(s.pending.state), []byte(state)) != 1 {
		s.logger.Warn("callback state does not match pending authorization")
		return "", autherrors.ErrStateMismatch
	}

	return s.pending.target, nil
}

// Exchange trades an authorization code for a validated token. It only
// reads immutable configuration and may run without the caller's lock.
func (s *Session) Exchange(ctx context.Context, code string) (*Token, error) {
	s.logger.Debug("exchanging authorization code")

	t, err := s.oauth.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging code: %w", autherrors.ErrUnauthorized, err)
	}

	tok, err := Validate(t)
	if err != nil {
		return nil, err
	}

	s.logger.Info("obtained token")

	return tok, nil
}

// Install stores tok as the current token and ends the pending
// authorization if its state still matches.
func (s *Session) Install(state string, tok *Token) {
	if s.pending != nil && s.pending.state == state {
		s.pending = nil
	}

	s.token = tok
}

// CompleteAuthorization verifies state, exchanges code, and installs the
// resulting token. On success it returns the target recorded by
// Authorize. On failure the current token is left as it was.
func (s *Session) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	target, err := s.VerifyState(state)
	if err != nil {
		return "", err
	}

	tok, err := s.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	s.Install(state, tok)

	return target, nil
}

// Token returns the current token, or nil.
func (s *Session) Token() *Token {
	return s.token
}

// SetToken replaces the current token. Used to restore a persisted token.
func (s *Session) SetToken(tok *Token) {
	s.token = tok
}

// Authorized reports whether a token is held. The token may be expired.
func (s *Session) Authorized() bool {
	return s.token != nil
}

// NeedsRefresh reports whether tok must be refreshed before use.
func (s *Session) NeedsRefresh(tok *Token) bool {
	return tok.IsExpired(s.now(), s.leeway)
}

// Refresh exchanges the refresh token of tok for a new token. Like
// Exchange it does not touch session state.
func (s *Session) Refresh(ctx context.Context, tok *Token) (*Token, error) {
	s.logger.Debug("access token expired, refreshing")

	src := s.oauth.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})

	t, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	fresh, err := Validate(t)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refreshed token")

	return fresh, nil
}

// Bearer returns a usable bearer credential. ok is false when no token
// is held. An expired token is refreshed exactly once; if that fails the
// error is returned and the stored token is kept for a later attempt.
func (s *Session) Bearer(ctx context.Context) (b Bearer, ok bool, err error) {
	tok := s.token
	if tok == nil {
		return "", false, nil
	}

	if s.NeedsRefresh(tok) {
		fresh, err := s.Refresh(ctx, tok)
		if err != nil {
			return "", false, err
		}

		s.token = fresh
		tok = fresh
	}

	return tok.Bearer(), true, nil
}

func (s *Session) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// RandomHex returns a hex-encoded random string of byteLen bytes.
func RandomHex(byteLen int) string {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	return hex.EncodeToString(b)
}
