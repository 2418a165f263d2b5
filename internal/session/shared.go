// Package session holds the state shared between the poller and the HTTP
// handlers: the OAuth session, the ingestion state, and cached activity
// stats. All access goes through Shared's methods, which serialize on one
// mutex. The mutex is never held across a call to the OAuth provider.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	"github.com/alexjbarnes/activity-sync/internal/broadcast"
	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
	"github.com/alexjbarnes/activity-sync/internal/ingest"
	"github.com/alexjbarnes/activity-sync/internal/models"
	"github.com/alexjbarnes/activity-sync/internal/tiles"
)

//go:generate mockgen -source=shared.go -destination=mock_store_test.go -package=session

// Store is the activity database.
type Store interface {
	AddRecords(ctx context.Context, activities []models.Activity) (models.Stats, error)
	EarliestWithoutTrack(ctx context.Context) (*models.Activity, error)
	MarkTrackStatus(ctx context.Context, id int64, status models.TrackStatus) error
	Stats(ctx context.Context) (models.Stats, error)
	PutTiles(ctx context.Context, z tiles.Zoom, activityID int64, ts []tiles.Tile) error
}

// TrackWriter stores GPS tracks.
type TrackWriter interface {
	Write(a *models.Activity, s *models.Stream) error
}

// TokenPersister saves the OAuth token so a restart does not require a
// new authorization.
type TokenPersister interface {
	SaveToken(tok *auth.Token) error
}

// Snapshot is the status published to subscribers. Values are never
// modified after construction.
type Snapshot struct {
	Authorized bool         `json:"authorized"`
	State      ingest.State `json:"state"`
	Stats      models.Stats `json:"stats"`
}

// Options configures a Shared.
type Options struct {
	OAuth      *auth.Session
	Store      Store
	Tracks     TrackWriter
	Persister  TokenPersister
	PerPage    int
	StoreTiles bool
	Logger     *slog.Logger
}

// Shared is the single mutually exclusive region of the process.
type Shared struct {
	mu    sync.Mutex
	oauth *auth.Session
	state ingest.State
	// stats is nil until first loaded from the store.
	stats *models.Stats

	store      Store
	tracks     TrackWriter
	persister  TokenPersister
	perPage    int
	storeTiles bool

	status *broadcast.Broadcaster[Snapshot]
	logger *slog.Logger
}

// New creates the shared state. Ingestion starts Inactive.
func New(opts Options) *Shared {
	return &Shared{
		oauth:      opts.OAuth,
		state:      ingest.Inactive,
		store:      opts.Store,
		tracks:     opts.Tracks,
		persister:  opts.Persister,
		perPage:    opts.PerPage,
		storeTiles: opts.StoreTiles,
		status:     broadcast.New[Snapshot](),
		logger:     opts.Logger.With(slog.String("service", "session")),
	}
}

// State returns the ingestion state.
func (s *Shared) State() ingest.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Advance moves the ingestion state from prev to next and returns the
// resulting state. If the state changed since prev was read, e.g. a
// toggle landed while a phase call was in flight, that change stands and
// next is discarded.
func (s *Shared) Advance(prev, next ingest.State) ingest.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != prev {
		s.logger.Debug("state changed during phase call",
			slog.String("expected", prev.String()),
			slog.String("current", s.state.String()),
			slog.String("discarded", next.String()),
		)

		return s.state
	}

	s.state = next

	return next
}

// Toggle flips ingestion on or off. Turning it on requires a token.
func (s *Shared) Toggle() (ingest.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.oauth.Authorized() {
		return s.state, autherrors.ErrNotAuthorized
	}

	s.state = ingest.Toggle(s.state)
	s.logger.Info("ingestion toggled", slog.String("state", s.state.String()))

	return s.state, nil
}

// Authorize starts an authorization attempt and returns the provider URL.
func (s *Shared) Authorize(target string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.oauth.Authorize(target)
}

// CompleteAuthorization handles the OAuth callback. The code exchange
// runs without the lock.
func (s *Shared) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	s.mu.Lock()
	target, err := s.oauth.VerifyState(state)
	s.mu.Unlock()

	if err != nil {
		return "", err
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("authorization failed", slog.String("error", err.Error()))
		return "", err
	}

	s.mu.Lock()
	s.oauth.Install(state, tok)
	s.persistLocked(tok)
	s.mu.Unlock()

	s.logger.Info("authorized")

	if err := s.PublishStatus(ctx); err != nil {
		s.logger.Warn("publishing status after authorization", slog.String("error", err.Error()))
	}

	return target, nil
}

// Bearer returns a valid bearer, refreshing an expired token first. ok is
// false when no token is held. The refresh runs without the lock; its
// result only replaces the token it was derived from.
func (s *Shared) Bearer(ctx context.Context) (auth.Bearer, bool, error) {
	s.mu.Lock()
	tok := s.oauth.Token()
	needsRefresh := tok != nil && s.oauth.NeedsRefresh(tok)
	s.mu.Unlock()

	if tok == nil {
		return "", false, nil
	}

	if !needsRefresh {
		return tok.Bearer(), true, nil
	}

	fresh, err := s.oauth.Refresh(ctx, tok)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	if s.oauth.Token() == tok {
		s.oauth.SetToken(fresh)
		s.persistLocked(fresh)
	}
	s.mu.Unlock()

	return fresh.Bearer(), true, nil
}

// Authorized reports whether a token is held.
func (s *Shared) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.oauth.Authorized()
}

// QueryParams returns the parameters of the next activity list request:
// the start time of the newest known activity and the page size.
func (s *Shared) QueryParams(ctx context.Context) (after int64, perPage int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.statsLocked(ctx)
	if err != nil {
		return 0, 0, err
	}

	return stats.ActMaxTimeUnix(), s.perPage, nil
}

// AddRecords stores a page of activities and merges their stats.
func (s *Shared) AddRecords(ctx context.Context, activities []models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("adding activities", slog.Int("count", len(activities)))

	delta, err := s.store.AddRecords(ctx, activities)
	if err != nil {
		return err
	}

	s.mergeLocked(delta)

	return nil
}

// EarliestWithoutTrack returns the oldest activity without a track
// status, or nil.
func (s *Shared) EarliestWithoutTrack(ctx context.Context) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.EarliestWithoutTrack(ctx)
}

// StoreTrack writes the track file, marks the activity, stores its tiles
// when enabled, and counts the track in the stats.
func (s *Shared) StoreTrack(ctx context.Context, a *models.Activity, st *models.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracks.Write(a, st); err != nil {
		return err
	}

	if err := s.store.MarkTrackStatus(ctx, a.ID, models.TrackStored); err != nil {
		return err
	}

	if s.storeTiles {
		for _, z := range tiles.Zooms {
			if err := s.store.PutTiles(ctx, z, a.ID, tiles.FromStream(st, z)); err != nil {
				return err
			}
		}
	}

	s.mergeLocked(models.Stats{TrkCount: 1, TrkMaxTime: models.TimeRef(a.StartDate)})

	return nil
}

// MarkTrackMissing records that an activity has no usable track.
func (s *Shared) MarkTrackMissing(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.MarkTrackStatus(ctx, a.ID, models.TrackMissing)
}

// Snapshot returns the current status.
func (s *Shared) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(ctx)
}

// PublishStatus sends a snapshot to subscribers. It does nothing when
// there are none.
func (s *Shared) PublishStatus(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Subscribers() == 0 {
		return nil
	}

	snap, err := s.snapshotLocked(ctx)
	if err != nil {
		return err
	}

	s.status.Publish(snap)

	return nil
}

// Subscribe registers a status subscriber and returns the current
// snapshot with it, so the subscriber starts from a known state. The
// caller must Close the subscription.
func (s *Shared) Subscribe(ctx context.Context) (*broadcast.Subscription[Snapshot], Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshotLocked(ctx)
	if err != nil {
		return nil, Snapshot{}, err
	}

	return s.status.Subscribe(), snap, nil
}

// Subscribers returns the number of status subscribers.
func (s *Shared) Subscribers() int {
	return s.status.Subscribers()
}

func (s *Shared) snapshotLocked(ctx context.Context) (Snapshot, error) {
	stats, err := s.statsLocked(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Authorized: s.oauth.Authorized(),
		State:      s.state,
		Stats:      *stats,
	}, nil
}

func (s *Shared) statsLocked(ctx context.Context) (*models.Stats, error) {
	if s.stats != nil {
		return s.stats, nil
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("loaded activity stats", slog.Int("activities", stats.ActCount), slog.Int("tracks", stats.TrkCount))
	s.stats = &stats

	return s.stats, nil
}

// mergeLocked is a no-op until the stats have been loaded; the first load
// reads the totals from the store, which already include delta.
func (s *Shared) mergeLocked(delta models.Stats) {
	if s.stats != nil {
		s.stats.Merge(delta)
	}
}

func (s *Shared) persistLocked(tok *auth.Token) {
	if s.persister == nil {
		return
	}

	if err := s.persister.SaveToken(tok); err != nil {
		s.logger.Warn("persisting token", slog.String("error", err.Error()))
	}
}
