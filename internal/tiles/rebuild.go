package tiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alexjbarnes/activity-sync/internal/models"
)

// RebuildStore is the tile and activity storage Rebuild works on.
type RebuildStore interface {
	DeleteAllTiles(ctx context.Context) error
	ActivitiesWithTrack(ctx context.Context) ([]models.Activity, error)
	PutTiles(ctx context.Context, z Zoom, activityID int64, ts []Tile) error
}

// TrackReader loads stored tracks.
type TrackReader interface {
	Read(a *models.Activity) (*models.Stream, error)
}

// Rebuild clears all tiles and derives them again from the stored tracks.
// Activities whose track file cannot be read are logged and skipped. It
// returns the number of tracks that contributed tiles.
func Rebuild(ctx context.Context, db RebuildStore, tracks TrackReader, logger *slog.Logger) (int, error) {
	if err := db.DeleteAllTiles(ctx); err != nil {
		return 0, fmt.Errorf("clearing tiles: %w", err)
	}

	activities, err := db.ActivitiesWithTrack(ctx)
	if err != nil {
		return 0, err
	}

	n := 0

	for i := range activities {
		a := &activities[i]

		st, err := tracks.Read(a)
		if err != nil {
			logger.Warn("skipping unreadable track", slog.Int64("activity", a.ID), slog.String("error", err.Error()))
			continue
		}

		for _, z := range Zooms {
			if err := db.PutTiles(ctx, z, a.ID, FromStream(st, z)); err != nil {
				return n, fmt.Errorf("storing tiles of activity %d: %w", a.ID, err)
			}
		}

		n++
	}

	logger.Info("rebuilt tiles", slog.Int("tracks", n), slog.Int("skipped", len(activities)-n))

	return n, nil
}
