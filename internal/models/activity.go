// Package models defines types shared across internal packages.
package models

import "time"

// Activity is a single recorded activity as listed by the provider.
// StartDate is an RFC 3339 UTC timestamp and sorts lexically.
type Activity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	SportType          string  `json:"sport_type"`
	StartDate          string  `json:"start_date"`
	Distance           float64 `json:"distance"`
	MovingTime         int64   `json:"moving_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	AverageSpeed       float64 `json:"average_speed"`
	KudosCount         int64   `json:"kudos_count"`
}

// StartTime parses StartDate. The zero time is returned for values that
// do not parse.
func (a *Activity) StartTime() time.Time {
	t, err := time.Parse(time.RFC3339, a.StartDate)
	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}

// TrackStatus records whether the GPS track of an activity has been fetched.
type TrackStatus int

const (
	// TrackPending means the track has not been requested yet.
	TrackPending TrackStatus = 0
	// TrackStored means the track was written to disk.
	TrackStored TrackStatus = 1
	// TrackMissing means the provider has no usable track for the activity.
	TrackMissing TrackStatus = 2
)

func (s TrackStatus) String() string {
	switch s {
	case TrackPending:
		return "pending"
	case TrackStored:
		return "stored"
	case TrackMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Stream holds the sampled track of an activity. All slices have the same
// length when the stream is complete. Time values are seconds since the
// activity start.
type Stream struct {
	LatLng   [][2]float64
	Altitude []float64
	Time     []int64
}

// Len returns the number of track points.
func (s *Stream) Len() int {
	return len(s.LatLng)
}
