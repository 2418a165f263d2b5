package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	apierrors "github.com/alexjbarnes/activity-sync/internal/errors"
	"github.com/alexjbarnes/activity-sync/internal/models"
)

//go:generate mockgen -source=poller.go -destination=mock_poller_test.go -package=ingest

// Session is the shared state the poller works against. Every method
// takes the shared lock for its own duration only.
type Session interface {
	State() State
	Advance(prev, next State) State
	Bearer(ctx context.Context) (auth.Bearer, bool, error)
	QueryParams(ctx context.Context) (after int64, perPage int, err error)
	AddRecords(ctx context.Context, activities []models.Activity) error
	EarliestWithoutTrack(ctx context.Context) (*models.Activity, error)
	StoreTrack(ctx context.Context, a *models.Activity, s *models.Stream) error
	MarkTrackMissing(ctx context.Context, a *models.Activity) error
	PublishStatus(ctx context.Context) error
}

// Provider is the remote activity API.
type Provider interface {
	ListActivities(ctx context.Context, bearer auth.Bearer, after int64, perPage int) ([]models.Activity, error)
	Streams(ctx context.Context, bearer auth.Bearer, id int64) (*models.Stream, error)
}

// Config holds the two poll periods.
type Config struct {
	Long  time.Duration
	Short time.Duration
}

// Poller runs one ingestion step per tick.
type Poller struct {
	session  Session
	provider Provider
	cfg      Config
	logger   *slog.Logger
}

// NewPoller creates a poller.
func NewPoller(session Session, provider Provider, cfg Config, logger *slog.Logger) *Poller {
	return &Poller{
		session:  session,
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "poller")),
	}
}

func (p *Poller) period(mode DelayMode) time.Duration {
	if mode == Long {
		return p.cfg.Long
	}

	return p.cfg.Short
}

// Run polls until ctx is cancelled, which returns nil. Storage failures
// stop the loop and are returned. The first tick fires one short period
// after start.
func (p *Poller) Run(ctx context.Context) error {
	mode := Short

	ticker := time.NewTicker(p.period(mode))
	defer ticker.Stop()

	p.logger.Info("poller started",
		slog.Duration("short", p.cfg.Short),
		slog.Duration("long", p.cfg.Long),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
		}

		next, ok, err := p.tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("poller stopped")
				return nil
			}

			p.logger.Error("ingestion failed", slog.String("error", err.Error()))

			return err
		}

		if ok && next != mode {
			mode = next
			ticker.Reset(p.period(mode))
			p.logger.Debug("poll period changed", slog.String("mode", mode.String()), slog.Duration("period", p.period(mode)))
		}
	}
}

// tick runs one iteration. ok is false when the iteration was skipped
// without a state transition, in which case the period stays as it is.
func (p *Poller) tick(ctx context.Context) (mode DelayMode, ok bool, err error) {
	prev := p.session.State()
	if !IsActive(prev) {
		return Delay(prev, prev), true, nil
	}

	bearer, authorized, err := p.session.Bearer(ctx)
	if err != nil {
		p.logger.Warn("no usable access token, skipping", slog.String("error", err.Error()))
		return Short, false, nil
	}

	if !authorized {
		// Only the interactive OAuth flow can install a token again.
		p.logger.Warn("not authorized, skipping")
		return Short, false, nil
	}

	var outcome Outcome

	switch prev {
	case FetchingRecords:
		outcome, ok, err = p.fetchRecords(ctx, bearer)
	case FetchingTracks:
		outcome, ok, err = p.fetchTrack(ctx, bearer)
	}

	if err != nil || !ok {
		return Short, false, err
	}

	next := p.session.Advance(prev, Next(prev, outcome))
	if next != prev {
		p.logger.Info("ingestion state changed",
			slog.String("from", prev.String()),
			slog.String("to", next.String()),
			slog.String("outcome", outcome.String()),
		)
	}

	if err := p.session.PublishStatus(ctx); err != nil {
		p.logger.Warn("publishing status", slog.String("error", err.Error()))
	}

	return Delay(prev, next), true, nil
}

// fetchRecords lists the next page of activities after the newest stored
// one and stores it.
func (p *Poller) fetchRecords(ctx context.Context, bearer auth.Bearer) (Outcome, bool, error) {
	after, perPage, err := p.session.QueryParams(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("reading activity stats: %w", err)
	}

	activities, err := p.provider.ListActivities(ctx, bearer, after, perPage)
	if err != nil {
		outcome, ok := p.classify("listing activities", err)
		return outcome, ok, nil
	}

	if len(activities) == 0 {
		return RecordsEmpty, true, nil
	}

	if err := p.session.AddRecords(ctx, activities); err != nil {
		return 0, false, fmt.Errorf("storing activities: %w", err)
	}

	return RecordsFound, true, nil
}

// fetchTrack downloads the track of the oldest activity without one.
// Activities without a usable track are marked missing so they are not
// requested again.
func (p *Poller) fetchTrack(ctx context.Context, bearer auth.Bearer) (Outcome, bool, error) {
	a, err := p.session.EarliestWithoutTrack(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("finding activity without track: %w", err)
	}

	if a == nil {
		return NoTrackless, true, nil
	}

	stream, err := p.provider.Streams(ctx, bearer, a.ID)
	if errors.Is(err, apierrors.ErrTrackNotFound) || errors.Is(err, apierrors.ErrStreamIncomplete) {
		p.logger.Info("activity has no usable track", slog.Int64("activity", a.ID), slog.String("reason", err.Error()))

		if err := p.session.MarkTrackMissing(ctx, a); err != nil {
			return 0, false, fmt.Errorf("marking track missing: %w", err)
		}

		return TrackHandled, true, nil
	}

	if err != nil {
		outcome, ok := p.classify("fetching track", err)
		return outcome, ok, nil
	}

	if err := p.session.StoreTrack(ctx, a, stream); err != nil {
		return 0, false, fmt.Errorf("storing track of activity %d: %w", a.ID, err)
	}

	p.logger.Debug("stored track", slog.Int64("activity", a.ID), slog.Int("points", stream.Len()))

	return TrackHandled, true, nil
}

func (p *Poller) classify(op string, err error) (Outcome, bool) {
	outcome, ok := Classify(err)
	if !ok {
		p.logger.Warn(op+" failed, skipping", slog.String("error", err.Error()))
		return 0, false
	}

	p.logger.Warn(op+" failed", slog.String("error", err.Error()), slog.String("outcome", outcome.String()))

	return outcome, true
}
