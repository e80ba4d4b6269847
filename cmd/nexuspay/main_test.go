package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/dashboard"
	"github.com/nexuspay/nexuspay/pkg/session"
)

const testWallet = "0x52908400098527886e0f7030069857d2e4169ee7"

type testEnv struct {
	dir      string
	store    *session.FileStore
	payments []api.PayWithCryptoRequest
	logouts  int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir()}

	mux := http.NewServeMux()
	mux.HandleFunc("/usdc/usdc-balance/arbitrum/"+testWallet, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		w.Write([]byte(`{"balanceInUSDC":"10.5","balanceInKES":"1354.5","rate":129}`))
	})
	mux.HandleFunc("/mpesa/pay-with-crypto", func(w http.ResponseWriter, r *http.Request) {
		var req api.PayWithCryptoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		env.payments = append(env.payments, req)
		w.Write([]byte(`{"success":true,"data":{"transactionId":"t1","instructions":"Payment sent to till"}}`))
	})
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"success":true,"data":{"transactions":[
			{"id":"t1","type":"crypto_to_till","status":"completed","amount":1290,"direction":"debit","createdAt":"2024-05-01T09:00:00Z"}
		],"pagination":{"currentPage":2,"totalPages":3,"totalItems":21,"limit":10}}}`))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		env.logouts++
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/user/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sessionPath := filepath.Join(env.dir, "session.json")
	cfg := map[string]any{
		"api":     map[string]any{"base_url": srv.URL, "timeout_seconds": 5},
		"session": map[string]any{"backend": "file", "path": sessionPath},
		"logging": map[string]any{"level": "error"},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.configPath(), data, 0o600))

	env.store = session.NewFileStore(sessionPath)
	return env
}

func (e *testEnv) configPath() string { return filepath.Join(e.dir, "config.json") }

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.Set(session.Session{
		Token:         "jwt",
		WalletAddress: testWallet,
		PhoneNumber:   "+254712345678",
	}))
}

func (e *testEnv) run(args ...string) (string, error) {
	out, _, err := e.exec(args...)
	return out, err
}

// exec is run that also hands back the cli state the command built.
func (e *testEnv) exec(args ...string) (string, *cli, error) {
	root, c := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.configPath()}, args...))
	err := execute(context.Background(), root, c)
	return out.String(), c, err
}

// useSQLite points the config at a sqlite session store in the test dir.
func (e *testEnv) useSQLite(t *testing.T) {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"api":     map[string]any{"base_url": "http://127.0.0.1:1", "timeout_seconds": 1},
		"session": map[string]any{"backend": "sqlite", "path": filepath.Join(e.dir, "session.db")},
		"logging": map[string]any{"level": "error"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.configPath(), data, 0o600))
}

func TestSessionStoreClosedAfterCommand(t *testing.T) {
	env := newTestEnv(t)
	env.useSQLite(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"success", []string{"status"}, nil},
		{"command error", []string{"balance"}, errNotSignedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c, err := env.exec(tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.IsType(t, &session.SQLiteStore{}, c.store)
			_, err = c.store.Get()
			assert.ErrorIs(t, err, session.ErrStoreClosed)
		})
	}
}

func TestTeardown_BeforeSetup(t *testing.T) {
	assert.NotPanics(t, func() { (&cli{}).teardown() })
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")

	env.signIn(t)
	out, err = env.run("status", "-o", "json")
	require.NoError(t, err)

	var v statusView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.Authenticated)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", v.WalletAddress)
	assert.Equal(t, "file", v.SessionStore)
}

func TestBalance(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("balance")
	assert.ErrorIs(t, err, errNotSignedIn)

	env.signIn(t)
	out, err := env.run("balance")
	require.NoError(t, err)
	assert.Contains(t, out, "10.50 USDC")
	assert.Contains(t, out, "KES 1,354.50")

	out, err = env.run("balance", "--output", "yaml")
	require.NoError(t, err)
	var v balanceView
	require.NoError(t, yaml.Unmarshal([]byte(out), &v))
	assert.Equal(t, "10.500000", v.USDC)
	assert.Equal(t, "arbitrum", v.Chain)

	_, err = env.run("balance", "--chain", "solana")
	assert.EqualError(t, err, dashboard.MsgUnsupportedChain)
}

func TestPay(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	out, err := env.run("pay", "--amount", "1,290", "--till", "5555", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Payment sent to till")

	require.Len(t, env.payments, 1)
	p := env.payments[0]
	assert.Equal(t, api.TargetTill, p.TargetType)
	assert.Equal(t, "5555", p.TargetNumber)
	assert.Empty(t, p.AccountNumber)
	assert.InDelta(t, 10.0, p.CryptoAmount, 1e-9)

	_, err = env.run("pay", "--amount", "5000", "--paybill", "888880")
	assert.EqualError(t, err, dashboard.MsgInsufficientBalance)
	assert.Len(t, env.payments, 1)
}

func TestTxList(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	out, err := env.run("tx", "list", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Pay Till")
	assert.Contains(t, out, "-1290.00")
	assert.Contains(t, out, "Page 2 of 3 (21 transactions)")
}

func TestProfileShow_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, err := env.run("profile", "show")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Token expired", err.Error())
}

func TestLogoutClearsSessionOnBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	out, err := env.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	assert.Equal(t, 1, env.logouts)
	assert.False(t, env.store.IsAuthenticated())
}

func TestUnknownOutput(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("status", "--output", "xml")
	assert.Error(t, err)
}

func TestOnboard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	var out bytes.Buffer
	require.NoError(t, onboard(&out, path, false))
	assert.Contains(t, out.String(), "Created config at "+path)
	assert.FileExists(t, path)

	out.Reset()
	require.NoError(t, onboard(&out, path, false))
	assert.Contains(t, out.String(), "Config already exists")

	out.Reset()
	require.NoError(t, onboard(&out, path, true))
	assert.Contains(t, out.String(), "Created config")
}

func TestVerifyPhone(t *testing.T) {
	assert.Equal(t, "+254712345678", verifyPhone("/auth/verify?phone=%2B254712345678"))
	assert.Equal(t, "", verifyPhone("/dashboard"))
	assert.Equal(t, "", verifyPhone(""))
}

func TestWatcher(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 30, 0, time.UTC)
	now := start
	var waits []time.Duration

	w := &watcher{
		schedule: "* * * * *",
		count:    2,
		now:      func() time.Time { return now },
		sleep: func(_ context.Context, d time.Duration) bool {
			waits = append(waits, d)
			now = now.Add(d)
			return true
		},
	}

	ticks := 0
	require.NoError(t, w.run(context.Background(), func(context.Context) error {
		ticks++
		return nil
	}))
	assert.Equal(t, 2, ticks)
	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute}, waits)
}

func TestWatcher_StopsOnUnauthorized(t *testing.T) {
	w := &watcher{
		schedule: "@hourly",
		now:      time.Now,
		sleep:    func(context.Context, time.Duration) bool { return true },
	}
	err := w.run(context.Background(), func(context.Context) error {
		return &api.APIError{StatusCode: http.StatusUnauthorized}
	})
	assert.True(t, api.IsUnauthorized(err))
}

func TestWatcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &watcher{schedule: "* * * * *", now: time.Now, sleep: sleepCtx}
	assert.NoError(t, w.run(ctx, func(context.Context) error {
		t.Fatal("tick after cancel")
		return nil
	}))
}
