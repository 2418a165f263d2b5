package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	"github.com/alexjbarnes/activity-sync/internal/ingest"
	"github.com/alexjbarnes/activity-sync/internal/mcpserver"
	"github.com/alexjbarnes/activity-sync/internal/models"
	"github.com/alexjbarnes/activity-sync/internal/server"
	"github.com/alexjbarnes/activity-sync/internal/session"
	"github.com/alexjbarnes/activity-sync/internal/state"
	"github.com/alexjbarnes/activity-sync/internal/store"
	"github.com/alexjbarnes/activity-sync/internal/strava"
	"github.com/alexjbarnes/activity-sync/internal/track"
)

const (
	testClientID = "e2e-client"
	testSecret   = "e2e-secret"
	goodCode     = "e2e-code"
)

// fakeActivity is an activity served by the fake provider, with the
// stream document returned for it. A nil stream answers 404.
type fakeActivity struct {
	models.Activity
	streams map[string]any
}

var seedActivities = []fakeActivity{
	{
		Activity: models.Activity{ID: 101, Name: "Morning Ride", SportType: "Ride", StartDate: "2018-02-18T10:02:13Z", Distance: 24131.4, MovingTime: 3600},
		streams: map[string]any{
			"latlng":   map[string]any{"data": [][2]float64{{51.318165, 12.375655}, {51.318213, 12.395588}, {51.318213, 12.375588}}},
			"altitude": map[string]any{"data": []float64{110.2, 118.9, 104.0}},
			"time":     map[string]any{"data": []int64{0, 60, 150}},
		},
	},
	{
		Activity: models.Activity{ID: 102, Name: "Treadmill", SportType: "Run", StartDate: "2018-02-20T12:00:00Z", Distance: 8000},
	},
	{
		Activity: models.Activity{ID: 103, Name: "Indoor Ride", SportType: "VirtualRide", StartDate: "2018-02-21T18:30:00Z", Distance: 30000},
		streams: map[string]any{
			"time": map[string]any{"data": []int64{0, 1}},
		},
	},
}

// fakeStrava implements the provider endpoints the server uses: the
// authorization page, the token endpoint, the activity list, and the
// activity streams.
type fakeStrava struct {
	srv *httptest.Server

	mu          sync.Mutex
	activities  []fakeActivity
	accessToken string
	issued      int
	expiresIn   int
	rateLimited bool

	refreshes atomic.Int32
	apiCalls  atomic.Int32
}

func newFakeStrava(t *testing.T) *fakeStrava {
	t.Helper()

	f := &fakeStrava{activities: seedActivities, expiresIn: 21600}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/authorize", f.authorize)
	mux.HandleFunc("POST /oauth/token", f.token)
	mux.HandleFunc("GET /api/v3/athlete/activities", f.listActivities)
	mux.HandleFunc("GET /api/v3/activities/{id}/streams", f.streams)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeStrava) setRateLimited(v bool) {
	f.mu.Lock()
	f.rateLimited = v
	f.mu.Unlock()
}

func (f *fakeStrava) setExpiresIn(secs int) {
	f.mu.Lock()
	f.expiresIn = secs
	f.mu.Unlock()
}

// authorize approves immediately, as if the user clicked "Authorize".
func (f *fakeStrava) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != testClientID || q.Get("response_type") != "code" {
		http.Error(w, "bad authorization request", http.StatusBadRequest)
		return
	}

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(w, "bad redirect_uri", http.StatusBadRequest)
		return
	}

	rq := redirect.Query()
	rq.Set("code", goodCode)
	rq.Set("state", q.Get("state"))
	rq.Set("scope", q.Get("scope"))
	redirect.RawQuery = rq.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (f *fakeStrava) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("client_id") != testClientID || r.PostForm.Get("client_secret") != testSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != goodCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
	case "refresh_token":
		if !strings.HasPrefix(r.PostForm.Get("refresh_token"), "refresh-") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}

		f.refreshes.Add(1)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	f.mu.Lock()
	f.issued++
	f.accessToken = fmt.Sprintf("access-%d", f.issued)
	resp := map[string]any{
		"token_type":    "Bearer",
		"access_token":  f.accessToken,
		"refresh_token": fmt.Sprintf("refresh-%d", f.issued),
		"expires_in":    f.expiresIn,
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// checkAPI validates the bearer and applies the rate limit switch.
func (f *fakeStrava) checkAPI(w http.ResponseWriter, r *http.Request) bool {
	f.apiCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-RateLimit-Limit", "100,1000")
	w.Header().Set("X-RateLimit-Usage", "1,1")

	if r.Header.Get("Authorization") != "Bearer "+f.accessToken || f.accessToken == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization Error"})
		return false
	}

	if f.rateLimited {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "Rate Limit Exceeded"})
		return false
	}

	return true
}

func (f *fakeStrava) listActivities(w http.ResponseWriter, r *http.Request) {
	if !f.checkAPI(w, r) {
		return
	}

	after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	out := []models.Activity{}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.activities {
		if a.StartTime().Unix() > after && len(out) < perPage {
			out = append(out, a.Activity)
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (f *fakeStrava) streams(w http.ResponseWriter, r *http.Request) {
	if !f.checkAPI(w, r) {
		return
	}

	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.activities, func(a fakeActivity) bool { return a.ID == id })
	if i < 0 || f.activities[i].streams == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Resource Not Found"})
		return
	}

	writeJSON(w, http.StatusOK, f.activities[i].streams)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// harness holds the full e2e stack: the fake provider, the HTTP server,
// and a running poller, wired the way main wires them.
type harness struct {
	URL       string
	Strava    *fakeStrava
	Shared    *session.Shared
	State     *state.State
	TracksDir string
	Client    *http.Client
}

// newHarness starts the stack with fast poll periods. The poller stops
// when the test ends.
func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	fake := newFakeStrava(t)
	dataDir := t.TempDir()
	tracksDir := filepath.Join(dataDir, "tracks")

	consoleDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(consoleDir, "index.html"), []byte("<h1>console</h1>"), 0o644))

	// The redirect URL needs the server address, so the handler is
	// installed after the listener starts.
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	db, err := store.Open(filepath.Join(dataDir, "activities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	appState, err := state.LoadAt(filepath.Join(dataDir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { appState.Close() })

	oauth := auth.NewSession(auth.Config{
		ClientID:     testClientID,
		ClientSecret: testSecret,
		AuthURL:      fake.srv.URL + "/oauth/authorize",
		TokenURL:     fake.srv.URL + "/oauth/token",
		RedirectURL:  srv.URL + "/auth-callback",
		Scopes:       []string{"read", "activity:read_all"},
		HTTPClient:   fake.srv.Client(),
	}, logger)

	tracks := track.NewStorage(tracksDir, logger)

	shared := session.New(session.Options{
		OAuth:      oauth,
		Store:      db,
		Tracks:     tracks,
		Persister:  appState,
		PerPage:    2,
		StoreTiles: true,
		Logger:     logger,
	})

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "activity-sync-e2e", Version: "test"}, nil)
	mcpserver.RegisterTools(mcpServer, shared, db, tracks)

	handler = server.NewMux(server.MuxConfig{
		Shared:     shared,
		Tiles:      db,
		TargetURL:  "/console/",
		ConsoleDir: consoleDir,
		MCPHandler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil),
		Logger:     logger,
	})

	client := strava.NewClient(fake.srv.URL+"/api/v3", fake.srv.Client(), 0, logger)
	poller := ingest.NewPoller(shared, client, ingest.Config{Long: 50 * time.Millisecond, Short: 5 * time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- poller.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return &harness{
		URL:       srv.URL,
		Strava:    fake,
		Shared:    shared,
		State:     appState,
		TracksDir: tracksDir,
		Client:    srv.Client(),
	}
}

// authorize runs the browser side of the OAuth flow: /authorize, the
// provider's approval redirect, and the callback.
func (h *harness) authorize(t *testing.T) *http.Response {
	t.Helper()

	resp := h.do(t, http.MethodGet, "/authorize")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return resp
}

func (h *harness) do(t *testing.T, method, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, h.URL+path, nil)
	require.NoError(t, err)

	resp, err := h.Client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func (h *harness) toggle(t *testing.T) ingest.State {
	t.Helper()

	resp := h.do(t, http.MethodPut, "/toggle")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st ingest.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))

	return st
}

func (h *harness) status(t *testing.T) session.Snapshot {
	t.Helper()

	resp := h.do(t, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))

	return snap
}

func (h *harness) waitForState(t *testing.T, want ingest.State) {
	t.Helper()

	require.Eventually(t, func() bool {
		return h.Shared.State() == want
	}, 10*time.Second, 5*time.Millisecond, "state never reached %s (now %s)", want, h.Shared.State())
}

// mcpSession connects an MCP client over the streamable HTTP endpoint.
func (h *harness) mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	transport := &mcp.StreamableClientTransport{
		Endpoint:   h.URL + "/mcp",
		HTTPClient: h.Client,
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-test-client", Version: "test"}, nil)

	cs, err := client.Connect(t.Context(), transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func extractTextContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	return tc.Text
}
