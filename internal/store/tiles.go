package store

import (
	"context"
	"fmt"

	"github.com/alexjbarnes/activity-sync/internal/tiles"
)

func tileTable(z tiles.Zoom) (string, error) {
	switch z {
	case tiles.Zoom14:
		return "maptile14", nil
	case tiles.Zoom17:
		return "maptile17", nil
	default:
		return "", fmt.Errorf("unsupported zoom level %d", z)
	}
}

// PutTiles records that activityID passes through each tile. Existing
// tiles have their activity count incremented.
func (s *Store) PutTiles(ctx context.Context, z tiles.Zoom, activityID int64, ts []tiles.Tile) error {
	table, err := tileTable(z)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (x, y, activity_id, activity_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(x, y) DO UPDATE SET activity_count = activity_count + 1`)
	if err != nil {
		return fmt.Errorf("preparing tile upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ts {
		if _, err := stmt.ExecContext(ctx, t.X, t.Y, activityID); err != nil {
			return fmt.Errorf("upserting tile %d/%d/%d: %w", z, t.X, t.Y, err)
		}
	}

	return tx.Commit()
}

// Tiles returns the stored tiles at zoom z, optionally limited to bounds,
// ordered by x then y.
func (s *Store) Tiles(ctx context.Context, z tiles.Zoom, bounds *tiles.Bounds) ([]tiles.Tile, error) {
	table, err := tileTable(z)
	if err != nil {
		return nil, err
	}

	query := "SELECT x, y FROM " + table
	var args []any

	if bounds != nil {
		query += " WHERE (x BETWEEN ? AND ?) AND (y BETWEEN ? AND ?)"
		args = append(args, bounds.X1, bounds.X2, bounds.Y1, bounds.Y2)
	}

	query += " ORDER BY x, y"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tiles: %w", err)
	}
	defer rows.Close()

	out := make([]tiles.Tile, 0)

	for rows.Next() {
		var t tiles.Tile
		if err := rows.Scan(&t.X, &t.Y); err != nil {
			return nil, fmt.Errorf("scanning tile: %w", err)
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

// DeleteAllTiles clears the tile tables of every zoom level.
func (s *Store) DeleteAllTiles(ctx context.Context) error {
	for _, z := range tiles.Zooms {
		table, err := tileTable(z)
		if err != nil {
			return err
		}

		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("deleting tiles of zoom %d: %w", z, err)
		}
	}

	return nil
}
