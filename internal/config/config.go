package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for activity-sync.
type Config struct {
	// Strava API application credentials. Required.
	ClientID     string `env:"STRAVA_CLIENT_ID"`
	ClientSecret string `env:"STRAVA_CLIENT_SECRET"`

	// Provider endpoints. Overridable so tests can point at a fake server.
	AuthURL  string `env:"STRAVA_AUTH_URL" envDefault:"https://www.strava.com/oauth/authorize"`
	TokenURL string `env:"STRAVA_TOKEN_URL" envDefault:"https://www.strava.com/oauth/token"`
	APIURL   string `env:"STRAVA_API_URL" envDefault:"https://www.strava.com/api/v3"`

	// RedirectURL is the callback registered with the provider. It must
	// point at this server's /auth-callback route.
	RedirectURL string   `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:2020/auth-callback"`
	Scopes      []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"read,activity:read_all"`

	// TargetURL is where the browser lands after a successful callback.
	TargetURL string `env:"OAUTH_TARGET_URL" envDefault:"/console/"`

	// Poll periods. The loop stays on the long period while it keeps
	// landing in the same active state.
	LongPeriod  time.Duration `env:"POLL_LONG_PERIOD" envDefault:"15m"`
	ShortPeriod time.Duration `env:"POLL_SHORT_PERIOD" envDefault:"5s"`

	ActivitiesPerPage int `env:"ACTIVITIES_PER_PAGE" envDefault:"30"`

	// APIRatePerMinute throttles outbound API calls. Zero disables it.
	APIRatePerMinute int `env:"API_RATE_PER_MINUTE" envDefault:"60"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":2020"`

	// DataDir holds the activity database and the token state. Defaults to
	// ~/.activity-sync.
	DataDir string `env:"DATA_DIR"`

	// TracksDir receives GPX files. Defaults to <DataDir>/tracks.
	TracksDir string `env:"TRACKS_DIR"`

	StoreTiles bool `env:"STORE_TILES" envDefault:"true"`

	// Optional static front ends.
	ConsoleDir string `env:"CONSOLE_DIR"`
	TilemapDir string `env:"TILEMAP_DIR"`

	EnableMCP bool `env:"ENABLE_MCP" envDefault:"false"`

	// MCPAPIKey, when set, must be sent as a Bearer token on /mcp.
	MCPAPIKey string `env:"MCP_API_KEY"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. The client secret lives there.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}

		cfg.DataDir = dir
	}

	absDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir to absolute path: %w", err)
	}

	cfg.DataDir = absDir

	if cfg.TracksDir == "" {
		cfg.TracksDir = filepath.Join(cfg.DataDir, "tracks")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("STRAVA_CLIENT_ID is required")
	}

	if c.ClientSecret == "" {
		return fmt.Errorf("STRAVA_CLIENT_SECRET is required")
	}

	if c.RedirectURL == "" {
		return fmt.Errorf("OAUTH_REDIRECT_URL is required")
	}

	if c.LongPeriod <= 0 || c.ShortPeriod <= 0 {
		return fmt.Errorf("POLL_LONG_PERIOD and POLL_SHORT_PERIOD must be positive")
	}

	if c.ShortPeriod > c.LongPeriod {
		return fmt.Errorf("POLL_SHORT_PERIOD (%s) must not exceed POLL_LONG_PERIOD (%s)", c.ShortPeriod, c.LongPeriod)
	}

	if c.ActivitiesPerPage < 1 || c.ActivitiesPerPage > 200 {
		return fmt.Errorf("ACTIVITIES_PER_PAGE must be between 1 and 200, got %d", c.ActivitiesPerPage)
	}

	if c.APIRatePerMinute < 0 {
		return fmt.Errorf("API_RATE_PER_MINUTE must not be negative")
	}

	return nil
}

// DefaultDataDir returns ~/.activity-sync.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(home, ".activity-sync"), nil
}

// DatabasePath returns the path of the activity database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "activities.db")
}

// StatePath returns the path of the bbolt state database.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
