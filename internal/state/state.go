// Package state persists small pieces of application state in bbolt.
package state

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/alexjbarnes/activity-sync/internal/auth"
	autherrors "github.com/alexjbarnes/activity-sync/internal/errors"
)

const (
	// stateDirPerm is the permission mode for the data directory.
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	// It holds the refresh token.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	appBucket = []byte("app")
	tokenKey  = []byte("oauth_token")
)

// State wraps a bbolt database for persistent application state.
type State struct {
	db *bolt.DB
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. The app bucket is created on open.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(appBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// Token returns the persisted OAuth token, or nil if none is stored.
func (s *State) Token() (*auth.Token, error) {
	var tok *auth.Token

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(tokenKey)
		if v == nil {
			return nil
		}

		tok = &auth.Token{}

		return json.Unmarshal(v, tok)
	})
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	// A token without a refresh token would fail for good at its first expiry.
	if tok != nil && tok.RefreshToken == "" {
		return nil, fmt.Errorf("reading token: %w", autherrors.ErrMissingRefreshToken)
	}

	return tok, nil
}

// SaveToken persists tok, replacing any stored token.
func (s *State) SaveToken(tok *auth.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(tokenKey, data)
	})
}

// ClearToken removes the stored token.
func (s *State) ClearToken() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Delete(tokenKey)
	})
}
