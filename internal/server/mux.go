// Package server provides the HTTP boundary of activity-sync: the OAuth
// redirect endpoints, ingestion control, status streaming, tile queries,
// and the optional static front ends and MCP endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexjbarnes/activity-sync/internal/session"
	"github.com/alexjbarnes/activity-sync/internal/tiles"
)

// TileReader serves visited tiles.
type TileReader interface {
	Tiles(ctx context.Context, z tiles.Zoom, bounds *tiles.Bounds) ([]tiles.Tile, error)
}

// MuxConfig holds dependencies for building the HTTP mux.
type MuxConfig struct {
	Shared *session.Shared
	Tiles  TileReader
	// TargetURL is the default landing page after authorization.
	TargetURL  string
	ConsoleDir string
	TilemapDir string
	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
	Logger     *slog.Logger
}

// NewMux builds the HTTP handler with all routes and middleware.
func NewMux(cfg MuxConfig) http.Handler {
	logger := cfg.Logger.With(slog.String("service", "http"))
	h := &handlers{
		shared:    cfg.Shared,
		tiles:     cfg.Tiles,
		targetURL: cfg.TargetURL,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", h.authorize)
	mux.HandleFunc("GET /auth-callback", h.authCallback)
	mux.HandleFunc("GET /toggle", h.toggle)
	mux.HandleFunc("PUT /toggle", h.toggle)
	mux.HandleFunc("GET /status", h.status)
	mux.HandleFunc("GET /status/ws", h.statusStream)
	mux.HandleFunc("GET /tiles/{zoom}", h.tileQuery)

	if cfg.ConsoleDir != "" {
		mux.Handle("GET /console/", http.StripPrefix("/console/", http.FileServer(http.Dir(cfg.ConsoleDir))))
	}

	if cfg.TilemapDir != "" {
		mux.Handle("GET /tilemap/", http.StripPrefix("/tilemap/", http.FileServer(http.Dir(cfg.TilemapDir))))
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console/", http.StatusTemporaryRedirect)
	})

	if cfg.MCPHandler != nil {
		mux.Handle("/mcp", cfg.MCPHandler)
	}

	return timing(logger, corsHandler()(mux))
}
