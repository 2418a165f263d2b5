package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	"github.com/alexjbarnes/activity-sync/internal/config"
	"github.com/alexjbarnes/activity-sync/internal/ingest"
	"github.com/alexjbarnes/activity-sync/internal/logging"
	"github.com/alexjbarnes/activity-sync/internal/mcpserver"
	"github.com/alexjbarnes/activity-sync/internal/server"
	"github.com/alexjbarnes/activity-sync/internal/session"
	"github.com/alexjbarnes/activity-sync/internal/state"
	"github.com/alexjbarnes/activity-sync/internal/store"
	"github.com/alexjbarnes/activity-sync/internal/strava"
	"github.com/alexjbarnes/activity-sync/internal/tiles"
	"github.com/alexjbarnes/activity-sync/internal/track"
)

var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error

	switch cmd {
	case "":
		err = run()
	case "rebuild-tiles":
		err = rebuildTiles()
	case "logout":
		err = logout()
	default:
		err = fmt.Errorf("unknown command %q (commands: rebuild-tiles, logout)", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info("activity-sync starting",
		slog.String("version", Version),
		slog.String("data_dir", cfg.DataDir),
		slog.Bool("tiles", cfg.StoreTiles),
		slog.Bool("mcp", cfg.EnableMCP),
	)

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening activity database: %w", err)
	}
	defer db.Close()

	appState, err := state.LoadAt(cfg.StatePath())
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	oauth := auth.NewSession(oauthConfig(cfg), logger)

	tok, err := appState.Token()
	if err != nil {
		logger.Warn("ignoring saved token, open /authorize to authorize again", slog.String("error", err.Error()))
	} else if tok != nil {
		oauth.SetToken(tok)
		logger.Info("restored saved token")
	} else {
		logger.Info("not authorized yet, open /authorize in a browser")
	}

	tracks := track.NewStorage(cfg.TracksDir, logger)

	shared := session.New(session.Options{
		OAuth:      oauth,
		Store:      db,
		Tracks:     tracks,
		Persister:  appState,
		PerPage:    cfg.ActivitiesPerPage,
		StoreTiles: cfg.StoreTiles,
		Logger:     logger,
	})

	client := strava.NewClient(cfg.APIURL, nil, cfg.APIRatePerMinute, logger)
	poller := ingest.NewPoller(shared, client, ingest.Config{
		Long:  cfg.LongPeriod,
		Short: cfg.ShortPeriod,
	}, logger)

	var mcpHandler http.Handler
	if cfg.EnableMCP {
		mcpServer := mcp.NewServer(
			&mcp.Implementation{Name: "activity-sync", Version: Version},
			nil,
		)
		mcpserver.RegisterTools(mcpServer, shared, db, tracks)

		mcpHandler = auth.Middleware(cfg.MCPAPIKey, logger)(
			mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
				return mcpServer
			}, nil),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return poller.Run(gctx)
	})

	g.Go(func() error {
		return serveHTTP(gctx, cfg, server.NewMux(server.MuxConfig{
			Shared:     shared,
			Tiles:      db,
			TargetURL:  cfg.TargetURL,
			ConsoleDir: cfg.ConsoleDir,
			TilemapDir: cfg.TilemapDir,
			MCPHandler: mcpHandler,
			Logger:     logger,
		}), logger)
	})

	err = g.Wait()
	logger.Info("activity-sync stopped")

	return err
}

// serveHTTP runs the HTTP server until ctx is cancelled. Request contexts
// derive from ctx so status streams end on shutdown.
func serveHTTP(ctx context.Context, cfg *config.Config, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", slog.String("error", err.Error()))
		}
	}()

	logger.Info("starting HTTP server",
		slog.String("listen", cfg.ListenAddr),
		slog.String("redirect_url", cfg.RedirectURL),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

// rebuildTiles derives the tile tables again from the stored GPX files.
func rebuildTiles() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening activity database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := tiles.Rebuild(ctx, db, track.NewStorage(cfg.TracksDir, logger), logger)
	if err != nil {
		return err
	}

	fmt.Printf("rebuilt tiles from %d tracks in %s\n", n, db.Path())

	return nil
}

// logout removes the saved token. The server must be stopped first since
// it holds the state database lock.
func logout() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	appState, err := state.LoadAt(cfg.StatePath())
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	if err := appState.ClearToken(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}

	fmt.Println("saved token removed")

	return nil
}

// oauthConfig builds the Strava client config. approval_prompt=force makes
// Strava show the consent screen every time so the scopes can be re-granted.
func oauthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		AuthParams:   map[string]string{"approval_prompt": "force"},
	}
}
