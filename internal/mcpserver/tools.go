// Package mcpserver registers MCP tools that expose ingestion control and
// the stored tracks. It adapts the session, store, and track packages to
// the MCP SDK's tool handler interface.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
	"github.com/alexjbarnes/activity-sync/internal/ingest"
	"github.com/alexjbarnes/activity-sync/internal/models"
	"github.com/alexjbarnes/activity-sync/internal/session"
)

const defaultTrackLimit = 50

// Ingestion is the shared state the ingestion tools drive.
type Ingestion interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Toggle() (ingest.State, error)
	PublishStatus(ctx context.Context) error
}

// Catalog looks up stored activities.
type Catalog interface {
	Activity(ctx context.Context, id int64) (*models.Activity, error)
	ActivitiesWithTrack(ctx context.Context) ([]models.Activity, error)
}

// Tracks locates and reads GPX files.
type Tracks interface {
	Path(a *models.Activity) (string, error)
	Read(a *models.Activity) (*models.Stream, error)
}

// RegisterTools adds all tools to the given MCP server.
func RegisterTools(server *mcp.Server, ing Ingestion, catalog Catalog, tracks Tracks) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_status",
		Description: "Report whether the server holds a Strava token, the ingestion state (Inactive, NoResults, RateLimited, RequestError, FetchingRecords, FetchingTracks), and activity/track counts.",
	}, statusHandler(ing))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_toggle",
		Description: "Turn ingestion on or off. Any dormant state restarts at FetchingRecords; any active state stops at Inactive. Fails when the server is not authorized.",
	}, toggleHandler(ing))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "activity_tracks",
		Description: "List activities with a stored GPX track, newest first, with the file path of each track.",
	}, tracksHandler(catalog, tracks))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "activity_track",
		Description: "Summarize the stored track of one activity: point count, duration, elevation range, and bounding box.",
	}, trackHandler(catalog, tracks))
}

// --- Input types ---
// The MCP SDK infers JSON schema from these struct types via jsonschema tags.

// StatusInput has no parameters.
type StatusInput struct{}

// ToggleInput has no parameters.
type ToggleInput struct{}

// TracksInput holds parameters for activity_tracks.
type TracksInput struct {
	SportType string `json:"sport_type,omitempty" jsonschema:"only list activities of this sport type, e.g. Ride or Run"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of tracks, defaults to 50"`
}

// TrackInput holds parameters for activity_track.
type TrackInput struct {
	ID int64 `json:"id" jsonschema:"required,activity id"`
}

// --- Result types ---

// StatusResult is the output of ingest_status.
type StatusResult struct {
	Authorized     bool   `json:"authorized"`
	State          string `json:"state"`
	Active         bool   `json:"active"`
	ActivityCount  int    `json:"activity_count"`
	FirstActivity  string `json:"first_activity,omitempty"`
	LatestActivity string `json:"latest_activity,omitempty"`
	TrackCount     int    `json:"track_count"`
	LatestTrack    string `json:"latest_track,omitempty"`
}

// ToggleResult is the output of ingest_toggle.
type ToggleResult struct {
	State  string `json:"state"`
	Active bool   `json:"active"`
}

// TrackEntry describes one stored track.
type TrackEntry struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	SportType string  `json:"sport_type"`
	StartDate string  `json:"start_date"`
	Distance  float64 `json:"distance"`
	Path      string  `json:"path"`
}

// TracksResult is the output of activity_tracks.
type TracksResult struct {
	Total  int          `json:"total"`
	Tracks []TrackEntry `json:"tracks"`
}

// TrackResult is the output of activity_track.
type TrackResult struct {
	TrackEntry
	Points       int        `json:"points"`
	DurationSecs int64      `json:"duration_secs"`
	MinAltitude  float64    `json:"min_altitude"`
	MaxAltitude  float64    `json:"max_altitude"`
	Bounds       [4]float64 `json:"bounds" jsonschema:"min lat, min lon, max lat, max lon"`
}

// --- Handlers ---

func statusHandler(ing Ingestion) mcp.ToolHandlerFor[StatusInput, *StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, *StatusResult, error) {
		snap, err := ing.Snapshot(ctx)
		if err != nil {
			return nil, nil, err
		}

		result := &StatusResult{
			Authorized:     snap.Authorized,
			State:          snap.State.String(),
			Active:         ingest.IsActive(snap.State),
			ActivityCount:  snap.Stats.ActCount,
			FirstActivity:  deref(snap.Stats.ActMinTime),
			LatestActivity: deref(snap.Stats.ActMaxTime),
			TrackCount:     snap.Stats.TrkCount,
			LatestTrack:    deref(snap.Stats.TrkMaxTime),
		}

		return textResult(result), result, nil
	}
}

func toggleHandler(ing Ingestion) mcp.ToolHandlerFor[ToggleInput, *ToggleResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ToggleInput) (*mcp.CallToolResult, *ToggleResult, error) {
		st, err := ing.Toggle()
		if errors.Is(err, autherrors.ErrNotAuthorized) {
			return nil, nil, fmt.Errorf("not authorized: open /authorize in a browser first")
		}

		if err != nil {
			return nil, nil, err
		}

		// The toggle already happened; a failed publish only delays
		// status subscribers.
		_ = ing.PublishStatus(ctx)

		result := &ToggleResult{State: st.String(), Active: ingest.IsActive(st)}

		return textResult(result), result, nil
	}
}

func tracksHandler(catalog Catalog, tracks Tracks) mcp.ToolHandlerFor[TracksInput, *TracksResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TracksInput) (*mcp.CallToolResult, *TracksResult, error) {
		activities, err := catalog.ActivitiesWithTrack(ctx)
		if err != nil {
			return nil, nil, err
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultTrackLimit
		}

		result := &TracksResult{Tracks: []TrackEntry{}}

		for i := len(activities) - 1; i >= 0; i-- {
			a := &activities[i]
			if input.SportType != "" && a.SportType != input.SportType {
				continue
			}

			result.Total++
			if len(result.Tracks) >= limit {
				continue
			}

			entry, err := trackEntry(a, tracks)
			if err != nil {
				return nil, nil, err
			}

			result.Tracks = append(result.Tracks, entry)
		}

		return textResult(result), result, nil
	}
}

func trackHandler(catalog Catalog, tracks Tracks) mcp.ToolHandlerFor[TrackInput, *TrackResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, *TrackResult, error) {
		a, err := catalog.Activity(ctx, input.ID)
		if err != nil {
			return nil, nil, err
		}

		if a == nil {
			return nil, nil, fmt.Errorf("activity %d not found", input.ID)
		}

		entry, err := trackEntry(a, tracks)
		if err != nil {
			return nil, nil, err
		}

		st, err := tracks.Read(a)
		if err != nil {
			return nil, nil, fmt.Errorf("activity %d has no readable track: %w", a.ID, err)
		}

		result := summarize(entry, st)

		return textResult(result), result, nil
	}
}

func trackEntry(a *models.Activity, tracks Tracks) (TrackEntry, error) {
	path, err := tracks.Path(a)
	if err != nil {
		return TrackEntry{}, err
	}

	return TrackEntry{
		ID:        a.ID,
		Name:      a.Name,
		SportType: a.SportType,
		StartDate: a.StartDate,
		Distance:  a.Distance,
		Path:      path,
	}, nil
}

func summarize(entry TrackEntry, st *models.Stream) *TrackResult {
	result := &TrackResult{TrackEntry: entry, Points: st.Len()}
	if result.Points == 0 {
		return result
	}

	if n := len(st.Time); n > 0 {
		result.DurationSecs = st.Time[n-1] - st.Time[0]
	}

	result.MinAltitude, result.MaxAltitude = st.Altitude[0], st.Altitude[0]
	result.Bounds = [4]float64{st.LatLng[0][0], st.LatLng[0][1], st.LatLng[0][0], st.LatLng[0][1]}

	for i := range st.Len() {
		result.MinAltitude = min(result.MinAltitude, st.Altitude[i])
		result.MaxAltitude = max(result.MaxAltitude, st.Altitude[i])

		lat, lon := st.LatLng[i][0], st.LatLng[i][1]
		result.Bounds[0] = min(result.Bounds[0], lat)
		result.Bounds[1] = min(result.Bounds[1], lon)
		result.Bounds[2] = max(result.Bounds[2], lat)
		result.Bounds[3] = max(result.Bounds[3], lon)
	}

	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// textResult builds a CallToolResult with JSON text content from any value.
// This provides the unstructured content alongside the structured output
// that the SDK populates automatically.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling result: %v", err)}},
			IsError: true,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
