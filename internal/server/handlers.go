package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
	"github.com/alexjbarnes/activity-sync/internal/session"
	"github.com/alexjbarnes/activity-sync/internal/tiles"
)

type handlers struct {
	shared    *session.Shared
	tiles     TileReader
	targetURL string
	logger    *slog.Logger
}

// authorize redirects the browser to the provider, unless a token is
// already held. An optional local "target" overrides the landing page.
func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) {
	if h.shared.Authorized() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("authorized"))

		return
	}

	target := h.targetURL
	if t := r.URL.Query().Get("target"); isLocalPath(t) {
		target = t
	}

	http.Redirect(w, r, h.shared.Authorize(target), http.StatusTemporaryRedirect)
}

// isLocalPath rejects absolute and scheme-relative URLs so the callback
// cannot be used as an open redirect.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

func (h *handlers) authCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.logger.Warn("authorization denied by provider", slog.String("error", e))
		http.Error(w, "authorization denied", http.StatusUnauthorized)

		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	target, err := h.shared.CompleteAuthorization(r.Context(), code, state)
	if err != nil {
		h.logger.Warn("authorization callback rejected", slog.String("error", err.Error()))
		http.Error(w, "authorization failed", http.StatusUnauthorized)

		return
	}

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *handlers) toggle(w http.ResponseWriter, r *http.Request) {
	st, err := h.shared.Toggle()
	if errors.Is(err, autherrors.ErrNotAuthorized) {
		h.logger.Info("unauthorized, cannot enable ingestion")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())

		return
	}

	if err := h.shared.PublishStatus(r.Context()); err != nil {
		h.logger.Warn("publishing status", slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.shared.Snapshot(r.Context())
	if err != nil {
		h.internalError(w, "reading status", err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// statusStream sends the current snapshot, then every published one,
// until the client goes away or the server shuts down.
func (h *handlers) statusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same policy as CORS: any origin may watch the status.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	// Status streams are write-only; CloseRead handles control frames and
	// cancels ctx when the client closes.
	ctx := conn.CloseRead(r.Context())

	sub, first, err := h.shared.Subscribe(ctx)
	if err != nil {
		h.logger.Warn("subscribing to status", slog.String("error", err.Error()))
		_ = conn.Close(websocket.StatusInternalError, "status unavailable")

		return
	}
	defer sub.Close()

	if err := wsjson.Write(ctx, conn, first); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "")
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}

			if err := wsjson.Write(ctx, conn, snap); err != nil {
				h.logger.Debug("status stream write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *handlers) tileQuery(w http.ResponseWriter, r *http.Request) {
	z, err := tiles.ParseZoom(r.PathValue("zoom"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_zoom", err.Error())
		return
	}

	var bounds *tiles.Bounds

	if raw := r.URL.Query().Get("bounds"); raw != "" {
		bounds, err = tiles.ParseBounds(raw)
		if err != nil {
			h.logger.Warn("malformed parameter", slog.String("bounds", raw))
			writeJSONError(w, http.StatusBadRequest, "invalid_bounds", err.Error())

			return
		}
	}

	ts, err := h.tiles.Tiles(r.Context(), z, bounds)
	if err != nil {
		h.internalError(w, "reading tiles", err)
		return
	}

	if ts == nil {
		ts = []tiles.Tile{}
	}

	writeJSON(w, http.StatusOK, ts)
}

func (h *handlers) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.String("error", err.Error()))
	writeJSONError(w, http.StatusInternalServerError, "server_error", op+" failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, description string) {
	writeJSON(w, status, map[string]string{
		"error":             errCode,
		"error_description": description,
	})
}
