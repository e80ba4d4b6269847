package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspay/nexuspay/pkg/config"
)

var sample = Session{
	Token:         "tok-123",
	WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	PhoneNumber:   "+254712345678",
}

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			return NewFileStore(filepath.Join(t.TempDir(), "nexuspay", "session.json"))
		},
		"sqlite": func() Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := open()

			got, err := store.Get()
			require.NoError(t, err)
			assert.Equal(t, Session{}, got)
			assert.False(t, store.IsAuthenticated())

			require.NoError(t, store.Set(sample))
			got, err = store.Get()
			require.NoError(t, err)
			assert.Equal(t, sample, got)
			assert.True(t, store.IsAuthenticated())

			require.NoError(t, store.Clear())
			got, err = store.Get()
			require.NoError(t, err)
			assert.Equal(t, Session{}, got)
			assert.False(t, store.IsAuthenticated())

			// clearing twice is fine
			require.NoError(t, store.Clear())
		})
	}
}

func TestStoreTokenAloneGatesAuthentication(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			require.NoError(t, store.Set(Session{WalletAddress: sample.WalletAddress, PhoneNumber: sample.PhoneNumber}))
			assert.False(t, store.IsAuthenticated())

			require.NoError(t, store.Set(Session{Token: "only-token"}))
			assert.True(t, store.IsAuthenticated())
			got, err := store.Get()
			require.NoError(t, err)
			assert.Empty(t, got.WalletAddress)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewFileStore(path).Set(sample))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := NewFileStore(path).Get()
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)
	_, err := store.Get()
	assert.Error(t, err)
	assert.False(t, store.IsAuthenticated())
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(sample))
	require.NoError(t, s1.Close())

	_, err = s1.Get()
	assert.ErrorIs(t, err, ErrStoreClosed)

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get()
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Session.Path = filepath.Join(t.TempDir(), "s.json")

	for backend, want := range map[string]any{
		"memory": &MemoryStore{},
		"file":   &FileStore{},
	} {
		cfg.Session.Backend = backend
		store, err := Open(cfg)
		require.NoError(t, err, backend)
		assert.IsType(t, want, store)
	}

	cfg.Session.Backend = "sqlite"
	cfg.Session.Path = filepath.Join(t.TempDir(), "s.db")
	store, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	store.(*SQLiteStore).Close()

	cfg.Session.Backend = "cookie"
	_, err = Open(cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
