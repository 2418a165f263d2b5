package models

import "time"

// Stats aggregates activity counts and time ranges. Time fields are
// RFC 3339 strings, nil when unknown.
type Stats struct {
	ActCount   int     `json:"act_count"`
	ActMinTime *string `json:"act_min_time"`
	ActMaxTime *string `json:"act_max_time"`
	TrkCount   int     `json:"trk_count"`
	TrkMaxTime *string `json:"trk_max_time"`
}

// Merge adds the counts of other and widens the time ranges.
func (s *Stats) Merge(other Stats) {
	s.ActCount += other.ActCount
	s.ActMinTime = minTime(s.ActMinTime, other.ActMinTime)
	s.ActMaxTime = maxTime(s.ActMaxTime, other.ActMaxTime)
	s.TrkCount += other.TrkCount
	s.TrkMaxTime = maxTime(s.TrkMaxTime, other.TrkMaxTime)
}

// ActMaxTimeUnix returns the latest activity start as Unix seconds, or 0
// when no activity is known.
func (s *Stats) ActMaxTimeUnix() int64 {
	if s.ActMaxTime == nil {
		return 0
	}

	t, err := time.Parse(time.RFC3339, *s.ActMaxTime)
	if err != nil {
		return 0
	}

	return t.Unix()
}

// TimeRef returns a pointer to a copy of v, for building Stats values.
func TimeRef(v string) *string {
	return &v
}

func minTime(a, b *string) *string {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	default:
		return a
	}
}

func maxTime(a, b *string) *string {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}
