// Package track stores activity tracks as GPX files laid out by start
// date: <dir>/<yyyy>/<mm>/<id>.gpx.
package track

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexjbarnes/activity-sync/internal/models"
)

// Storage reads and writes GPX files below a base directory.
type Storage struct {
	dir    string
	logger *slog.Logger
}

// NewStorage creates a Storage rooted at dir. The directory is created on
// first write.
func NewStorage(dir string, logger *slog.Logger) *Storage {
	return &Storage{
		dir:    dir,
		logger: logger.With(slog.String("service", "tracks")),
	}
}

// Path returns the file path of the track of a.
func (s *Storage) Path(a *models.Activity) (string, error) {
	start := a.StartTime()
	if start.IsZero() {
		return "", fmt.Errorf("activity %d: invalid start date %q", a.ID, a.StartDate)
	}

	return filepath.Join(s.dir,
		fmt.Sprintf("%04d", start.Year()),
		fmt.Sprintf("%02d", int(start.Month())),
		strconv.FormatInt(a.ID, 10)+".gpx",
	), nil
}

// Write stores the track of a. The file is replaced atomically so readers
// never see a partial document.
func (s *Storage) Write(a *models.Activity, st *models.Stream) error {
	path, err := s.Path(a)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, a, st); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".track-write-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	s.logger.Info("wrote track", slog.Int64("activity_id", a.ID), slog.String("path", path), slog.Int("points", st.Len()))

	return nil
}

// Read loads the stored track of a.
func (s *Storage) Read(a *models.Activity) (*models.Stream, error) {
	path, err := s.Path(a)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening track: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
