// Package session keeps the authenticated user's token, wallet address and
// phone number across process restarts.
package session

import (
	"errors"
	"fmt"

	"github.com/nexuspay/nexuspay/pkg/config"
)

var (
	// ErrUnknownBackend is returned by Open for an unsupported session backend.
	ErrUnknownBackend = errors.New("unknown session backend")
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("session store closed")
)

// Session is the persisted authentication state. Empty fields are absent.
type Session struct {
	Token         string `json:"authToken,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

// Authenticated reports whether a token is present. Token presence is the
// only gate; expiry is discovered when the backend answers 401.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store is the narrow read/write surface handed to components that make
// authenticated calls.
type Store interface {
	Set(s Session) error
	Get() (Session, error)
	Clear() error
	IsAuthenticated() bool
}

// Open builds the store selected by cfg.Session.Backend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Session.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.SessionPath()), nil
	case "sqlite":
		return OpenSQLite(cfg.SessionPath())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Session.Backend)
	}
}
