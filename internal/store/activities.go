package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/alexjbarnes/activity-sync/internal/models"
)

// Fractional values are stored as scaled integers.
const (
	distanceScale  = 10
	elevationScale = 10
	speedScale     = 1000
)

const selectActivities = `SELECT id, name, sport_type, start_date, distance, moving_time,
	total_elevation_gain, average_speed, kudos_count FROM activity`

// gpx_fetched is left alone on conflict so a re-listed activity keeps its
// track status.
const upsertActivity = `INSERT INTO activity (id, name, sport_type, start_date, distance, moving_time,
	total_elevation_gain, average_speed, kudos_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		sport_type = excluded.sport_type,
		start_date = excluded.start_date,
		distance = excluded.distance,
		moving_time = excluded.moving_time,
		total_elevation_gain = excluded.total_elevation_gain,
		average_speed = excluded.average_speed,
		kudos_count = excluded.kudos_count`

// AddRecords stores a batch of activities in one transaction and returns
// the stats delta contributed by activities not seen before.
func (s *Store) AddRecords(ctx context.Context, activities []models.Activity) (models.Stats, error) {
	var delta models.Stats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return delta, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range activities {
		a := &activities[i]

		var exists int

		err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM activity WHERE id = ?", a.ID).Scan(&exists)
		if err != nil {
			return models.Stats{}, fmt.Errorf("checking activity %d: %w", a.ID, err)
		}

		_, err = tx.ExecContext(ctx, upsertActivity,
			a.ID, a.Name, a.SportType, a.StartDate,
			scale(a.Distance, distanceScale), a.MovingTime,
			scale(a.TotalElevationGain, elevationScale),
			scale(a.AverageSpeed, speedScale), a.KudosCount,
		)
		if err != nil {
			return models.Stats{}, fmt.Errorf("upserting activity %d: %w", a.ID, err)
		}

		if exists == 0 {
			delta.Merge(models.Stats{
				ActCount:   1,
				ActMinTime: models.TimeRef(a.StartDate),
				ActMaxTime: models.TimeRef(a.StartDate),
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Stats{}, fmt.Errorf("committing activities: %w", err)
	}

	return delta, nil
}

// Activity returns the activity with id, or nil if unknown.
func (s *Store) Activity(ctx context.Context, id int64) (*models.Activity, error) {
	row := s.db.QueryRowContext(ctx, selectActivities+" WHERE id = ?", id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading activity %d: %w", id, err)
	}

	return a, nil
}

// EarliestWithoutTrack returns the oldest activity whose track has not
// been requested, or nil when there is none.
func (s *Store) EarliestWithoutTrack(ctx context.Context) (*models.Activity, error) {
	row := s.db.QueryRowContext(ctx, selectActivities+` WHERE gpx_fetched = 0
		AND start_date = (SELECT MIN(start_date) FROM activity WHERE gpx_fetched = 0)
		ORDER BY id LIMIT 1`)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading earliest activity without track: %w", err)
	}

	return a, nil
}

// MarkTrackStatus records the track status of an activity.
func (s *Store) MarkTrackStatus(ctx context.Context, id int64, status models.TrackStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE activity SET gpx_fetched = ? WHERE id = ?", int(status), id)
	if err != nil {
		return fmt.Errorf("marking track of activity %d %s: %w", id, status, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking track of activity %d %s: %w", id, status, err)
	}

	if n != 1 {
		return fmt.Errorf("marking track of activity %d %s: activity not found", id, status)
	}

	return nil
}

// Stats computes the aggregate stats over all stored activities.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var (
		stats                    models.Stats
		minTime, maxTime, trkMax sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(id),
		MIN(start_date),
		MAX(start_date),
		COUNT(id) FILTER (WHERE gpx_fetched = 1),
		MAX(start_date) FILTER (WHERE gpx_fetched = 1)
		FROM activity`).Scan(&stats.ActCount, &minTime, &maxTime, &stats.TrkCount, &trkMax)
	if err != nil {
		return models.Stats{}, fmt.Errorf("reading activity stats: %w", err)
	}

	stats.ActMinTime = nullString(minTime)
	stats.ActMaxTime = nullString(maxTime)
	stats.TrkMaxTime = nullString(trkMax)

	return stats, nil
}

// ActivitiesWithTrack returns all activities with a stored track, oldest
// first.
func (s *Store) ActivitiesWithTrack(ctx context.Context) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, selectActivities+" WHERE gpx_fetched = 1 ORDER BY start_date ASC")
	if err != nil {
		return nil, fmt.Errorf("listing activities with track: %w", err)
	}
	defer rows.Close()

	var out []models.Activity

	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}

		out = append(out, *a)
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*models.Activity, error) {
	var (
		a                          models.Activity
		distance, elevation, speed int64
	)

	err := row.Scan(&a.ID, &a.Name, &a.SportType, &a.StartDate, &distance, &a.MovingTime,
		&elevation, &speed, &a.KudosCount)
	if err != nil {
		return nil, err
	}

	a.Distance = float64(distance) / distanceScale
	a.TotalElevationGain = float64(elevation) / elevationScale
	a.AverageSpeed = float64(speed) / speedScale

	return &a, nil
}

func scale(v float64, factor float64) int64 {
	return int64(math.Round(v * factor))
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	return models.TimeRef(ns.String)
}
