// Package ingest drives the download of activities and their tracks from
// the provider. The state machine in this file is pure; the Poller applies
// it on each tick.
package ingest

import (
	"errors"
	"fmt"

	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
)

// State is the ingestion state. FetchingRecords and FetchingTracks are
// active; all other states are dormant and make the poller skip work.
type State int

const (
	Inactive State = iota
	NoResults
	RateLimited
	RequestError
	FetchingRecords
	FetchingTracks
)

// States lists every State in declaration order.
var States = []State{Inactive, NoResults, RateLimited, RequestError, FetchingRecords, FetchingTracks}

var stateNames = map[State]string{
	Inactive:        "Inactive",
	NoResults:       "NoResults",
	RateLimited:     "RateLimited",
	RequestError:    "RequestError",
	FetchingRecords: "FetchingRecords",
	FetchingTracks:  "FetchingTracks",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown ingestion state %d", int(s))
	}

	return []byte(name), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}

	return fmt.Errorf("unknown ingestion state %q", b)
}

// IsActive reports whether the poller does work in state s.
func IsActive(s State) bool {
	return s == FetchingRecords || s == FetchingTracks
}

// Outcome is the classified result of one phase call.
type Outcome int

const (
	// RecordsFound: a non-empty page of activities was stored.
	RecordsFound Outcome = iota
	// RecordsEmpty: the activity list is exhausted.
	RecordsEmpty
	// TrackHandled: one track was stored or marked missing.
	TrackHandled
	// NoTrackless: every stored activity has a track status.
	NoTrackless
	// RateLimitHit: the provider answered 429.
	RateLimitHit
	// RequestFailed: any other HTTP or network failure.
	RequestFailed
)

func (o Outcome) String() string {
	switch o {
	case RecordsFound:
		return "RecordsFound"
	case RecordsEmpty:
		return "RecordsEmpty"
	case TrackHandled:
		return "TrackHandled"
	case NoTrackless:
		return "NoTrackless"
	case RateLimitHit:
		return "RateLimitHit"
	case RequestFailed:
		return "RequestFailed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Next returns the state following s after outcome o. Outcomes that do
// not belong to the phase of s leave it unchanged, as do all outcomes in
// a dormant state.
func Next(s State, o Outcome) State {
	if !IsActive(s) {
		return s
	}

	switch o {
	case RateLimitHit:
		return RateLimited
	case RequestFailed:
		return RequestError
	}

	switch s {
	case FetchingRecords:
		switch o {
		case RecordsFound:
			return FetchingRecords
		case RecordsEmpty:
			return FetchingTracks
		}
	case FetchingTracks:
		switch o {
		case TrackHandled:
			return FetchingTracks
		case NoTrackless:
			return NoResults
		}
	}

	return s
}

// Toggle flips between dormant and active. Any dormant state restarts
// at FetchingRecords; any active state stops at Inactive.
func Toggle(s State) State {
	if IsActive(s) {
		return Inactive
	}

	return FetchingRecords
}

// DelayMode selects the poll period.
type DelayMode int

const (
	Short DelayMode = iota
	Long
)

func (d DelayMode) String() string {
	if d == Long {
		return "long"
	}

	return "short"
}

// Delay backs off to Long only while polling stays in the same active
// state. Every transition, and every dormant state, polls on Short.
func Delay(prev, next State) DelayMode {
	if prev == next && IsActive(next) {
		return Long
	}

	return Short
}

// Classify maps a phase error to an outcome. ok is false for errors the
// state machine does not model (storage failures, cancellation), which
// the caller must handle itself.
func Classify(err error) (o Outcome, ok bool) {
	switch {
	case errors.Is(err, autherrors.ErrRateLimited):
		return RateLimitHit, true
	case errors.Is(err, autherrors.ErrAPIRequest), errors.Is(err, autherrors.ErrAPIResponse):
		return RequestFailed, true
	default:
		return 0, false
	}
}
