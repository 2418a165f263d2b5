// Package strava is a minimal client for the Strava v3 REST API: the
// activity list and activity streams.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	apierrors "github.com/alexjbarnes/activity-sync/internal/errors"
	"github.com/alexjbarnes/activity-sync/internal/models"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://www.strava.com/api/v3"

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// httpClientTimeout is the timeout for the default HTTP client.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads. Streams of long
	// activities run to a few megabytes.
	maxAPIResponseBytes = 32 * 1024 * 1024

	streamKeys = "time,latlng,altitude"
)

// StatusError reports a non-2xx response. It wraps the sentinel matching
// the status so callers can use errors.Is without looking at codes.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API %s returned status %d", e.Endpoint, e.StatusCode)
	}

	return fmt.Sprintf("API %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

func statusKind(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return apierrors.ErrRateLimited
	case http.StatusNotFound:
		return apierrors.ErrTrackNotFound
	default:
		return apierrors.ErrAPIRequest
	}
}

// Client talks to the Strava REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so the bearer never leaks.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an API client. If httpClient is nil, a client with a
// 30-second timeout and same-host redirect policy is created.
// ratePerMinute throttles outbound requests; zero disables throttling.
func NewClient(baseURL string, httpClient *http.Client, ratePerMinute int, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:       httpClientTimeout,
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger.With(slog.String("service", "strava")),
	}
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// get sends an authenticated GET and returns the response body. Context
// cancellation is returned as is; every other failure wraps one of the
// API sentinels.
func (c *Client) get(ctx context.Context, bearer auth.Bearer, endpoint string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", apierrors.ErrAPIRequest, err)
	}

	req.Header.Set("Authorization", bearer.Header())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("API request failed", slog.String("url", u), slog.String("error", err.Error()))

		return nil, fmt.Errorf("%w: sending request to %s: %w", apierrors.ErrAPIRequest, endpoint, err)
	}
	defer resp.Body.Close()

	if usage := resp.Header.Get("X-RateLimit-Usage"); usage != "" {
		c.logger.Debug("API rate limit usage",
			slog.String("usage", usage),
			slog.String("limit", resp.Header.Get("X-RateLimit-Limit")),
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %w", apierrors.ErrAPIRequest, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("API returned error status", slog.String("url", u), slog.Int("status", resp.StatusCode))

		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       sanitizeResponseBody(body),
			kind:       statusKind(resp.StatusCode),
		}
	}

	c.logger.Debug("API request", slog.String("url", u), slog.Int("status", resp.StatusCode))

	return body, nil
}

// ListActivities returns up to perPage activities that started after the
// given Unix time, oldest first.
func (c *Client) ListActivities(ctx context.Context, bearer auth.Bearer, after int64, perPage int) ([]models.Activity, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after, 10))
	q.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, bearer, "/athlete/activities", q)
	if err != nil {
		// A missing list is a broken request, not a missing track.
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			se.kind = apierrors.ErrAPIRequest
		}

		return nil, err
	}

	var activities []models.Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("%w: decoding activities: %w", apierrors.ErrAPIResponse, err)
	}

	return activities, nil
}

// Streams returns the GPS stream of an activity. ErrTrackNotFound means
// the activity has no stream; ErrStreamIncomplete means it has one
// without usable coordinates.
func (c *Client) Streams(ctx context.Context, bearer auth.Bearer, id int64) (*models.Stream, error) {
	q := url.Values{}
	q.Set("keys", streamKeys)
	q.Set("key_by_type", "true")

	body, err := c.get(ctx, bearer, "/activities/"+strconv.FormatInt(id, 10)+"/streams", q)
	if err != nil {
		return nil, err
	}

	return parseStream(id, body)
}

func parseStream(id int64, body []byte) (*models.Stream, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: activity %d: stream is not valid JSON", apierrors.ErrAPIResponse, id)
	}

	doc := gjson.ParseBytes(body)

	latlng := doc.Get("latlng.data")
	altitude := doc.Get("altitude.data")
	times := doc.Get("time.data")

	if !latlng.IsArray() || !altitude.IsArray() || !times.IsArray() {
		return nil, fmt.Errorf("%w: activity %d: missing latlng, altitude or time", apierrors.ErrStreamIncomplete, id)
	}

	s := &models.Stream{}

	for _, p := range latlng.Array() {
		pair := p.Array()
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: activity %d: malformed coordinate %s", apierrors.ErrStreamIncomplete, id, p.Raw)
		}

		s.LatLng = append(s.LatLng, [2]float64{pair[0].Float(), pair[1].Float()})
	}

	for _, v := range altitude.Array() {
		s.Altitude = append(s.Altitude, v.Float())
	}

	for _, v := range times.Array() {
		s.Time = append(s.Time, v.Int())
	}

	if len(s.LatLng) != len(s.Altitude) || len(s.LatLng) != len(s.Time) {
		return nil, fmt.Errorf("%w: activity %d: streams have different lengths", apierrors.ErrStreamIncomplete, id)
	}

	return s, nil
}
