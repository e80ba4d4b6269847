package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nexuspay/nexuspay/pkg/logger"

	_ "modernc.org/sqlite"
)

const (
	keyToken   = "authToken"
	keyWallet  = "walletAddress"
	keyPhone   = "phoneNumber"
	schemaStmt = `CREATE TABLE IF NOT EXISTS session (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
)

// SQLiteStore keeps the three session entries as rows of a key/value table.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}

	logger.DebugCF("session", "Opened sqlite session store", map[string]any{"path": path})
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Set(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	for key, value := range map[string]string{
		keyToken:  sess.Token,
		keyWallet: sess.WalletAddress,
		keyPhone:  sess.PhoneNumber,
	} {
		if value == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO session (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Session{}, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT key, value FROM session`)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	defer rows.Close()

	var sess Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, err
		}
		switch key {
		case keyToken:
			sess.Token = value
		case keyWallet:
			sess.WalletAddress = value
		case keyPhone:
			sess.PhoneNumber = value
		}
	}
	return sess, rows.Err()
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(`DELETE FROM session`)
	return err
}

func (s *SQLiteStore) IsAuthenticated() bool {
	sess, err := s.Get()
	if err != nil {
		logger.WarnCF("session", "Session unreadable, treating as signed out", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	return sess.Authenticated()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
