package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/session"
)

type fakeBackend struct {
	mu       sync.Mutex
	loginErr error
	verify   func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error)
	register func(api.RegisterRequest) (*api.GenericResponse, error)
	logins   []api.LoginRequest
	verifies []api.VerifyOTPRequest
}

func (b *fakeBackend) Login(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins = append(b.logins, req)
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	return &api.LoginResponse{Success: true, Message: "OTP sent"}, nil
}

func (b *fakeBackend) VerifyOTP(_ context.Context, req api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
	b.mu.Lock()
	b.verifies = append(b.verifies, req)
	fn := b.verify
	b.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &api.VerifyOTPResponse{Success: true, Data: &api.AuthData{
		Token: "jwt", WalletAddress: "0xabc", PhoneNumber: req.PhoneNumber,
	}}, nil
}

func (b *fakeBackend) Register(_ context.Context, req api.RegisterRequest) (*api.GenericResponse, error) {
	if b.register != nil {
		return b.register(req)
	}
	return &api.GenericResponse{Success: true}, nil
}

func (b *fakeBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.logins), len(b.verifies)
}

type harness struct {
	backend *fakeBackend
	clock   *clock.Fake
	nav     *nav.Recorder
	flow    *LoginFlow
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{},
		clock:   clock.NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		nav:     &nav.Recorder{},
	}
	opts := DefaultOptions()
	opts.Clock = h.clock
	if mutate != nil {
		mutate(&opts)
	}
	h.flow = NewLoginFlow(h.backend, h.nav, opts)
	t.Cleanup(h.flow.Close)
	return h
}

func (h *harness) toOTP(t *testing.T) {
	t.Helper()
	require.NoError(t, h.flow.SubmitCredentials(context.Background(), "0712345678", "secret"))
}

func typeCode(fl interface {
	EnterDigit(context.Context, int, string) error
}, code string) error {
	var err error
	for i, r := range code {
		err = fl.EnterDigit(context.Background(), i, string(r))
	}
	return err
}

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	return fe
}

func TestSubmitCredentials_Validation(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		password string
		want     FieldErrors
	}{
		{"empty", "", "", FieldErrors{FieldPhone: MsgPhoneRequired, FieldPassword: MsgPasswordRequired}},
		{"short number", "07123", "pw", FieldErrors{FieldPhone: MsgPhoneInvalid}},
		{"too long", "+2547123456789", "pw", FieldErrors{FieldPhone: MsgPhoneInvalid}},
		{"no password", "0712345678", "", FieldErrors{FieldPassword: MsgPasswordRequired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			err := h.flow.SubmitCredentials(context.Background(), tt.phone, tt.password)
			assert.Equal(t, tt.want, fieldErrors(t, err))
			assert.Equal(t, tt.want, h.flow.State().Errors)
			assert.IsType(t, CredentialsStep{}, h.flow.Step())

			logins, _ := h.backend.counts()
			assert.Zero(t, logins)
		})
	}
}

func TestSubmitCredentials_MovesToOTP(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)

	require.Len(t, h.backend.logins, 1)
	assert.Equal(t, api.LoginRequest{PhoneNumber: "+254712345678", Password: "secret"}, h.backend.logins[0])

	st := h.flow.State()
	assert.Equal(t, OTPStep{PhoneNumber: "+254712345678"}, st.Step)
	assert.Equal(t, "+254***345678", st.MaskedPhone)
	assert.Equal(t, 60, st.TimeLeft)
	assert.Equal(t, "1:00", st.TimeLeftLabel())
	assert.False(t, st.CanResend)
	assert.Equal(t, 0, st.Focus)
	assert.Empty(t, st.Errors)

	err := h.flow.SubmitCredentials(context.Background(), "0712345678", "secret")
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestSubmitCredentials_DispatchFailure(t *testing.T) {
	t.Run("best effort", func(t *testing.T) {
		h := newHarness(t, nil)
		h.backend.loginErr = &api.APIError{StatusCode: 500, Message: "SMS gateway down"}

		require.NoError(t, h.flow.SubmitCredentials(context.Background(), "712345678", "secret"))
		assert.IsType(t, OTPStep{}, h.flow.Step())
	})

	t.Run("strict", func(t *testing.T) {
		h := newHarness(t, func(o *Options) { o.StrictDispatch = true })
		h.backend.loginErr = &api.APIError{StatusCode: 500, Message: "SMS gateway down"}

		err := h.flow.SubmitCredentials(context.Background(), "712345678", "secret")
		assert.Equal(t, FieldErrors{FieldGeneral: "SMS gateway down"}, fieldErrors(t, err))
		assert.IsType(t, CredentialsStep{}, h.flow.Step())
		assert.False(t, h.flow.State().Loading)
	})
}

func TestEnterDigit_Focus(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	ctx := context.Background()

	require.NoError(t, h.flow.EnterDigit(ctx, 0, "4"))
	assert.Equal(t, 1, h.flow.State().Focus)

	// non-digits and multi-character input are ignored
	require.NoError(t, h.flow.EnterDigit(ctx, 1, "x"))
	require.NoError(t, h.flow.EnterDigit(ctx, 1, "12"))
	st := h.flow.State()
	assert.Equal(t, "", st.Digits[1])
	assert.Equal(t, 1, st.Focus)

	require.NoError(t, h.flow.EnterDigit(ctx, 1, "2"))
	require.NoError(t, h.flow.EnterDigit(ctx, 2, "7"))
	assert.Equal(t, 3, h.flow.State().Focus)

	// backspace on an empty box moves back, on a filled one clears it
	require.NoError(t, h.flow.Backspace(3))
	assert.Equal(t, 2, h.flow.State().Focus)
	require.NoError(t, h.flow.Backspace(2))
	st = h.flow.State()
	assert.Equal(t, "", st.Digits[2])
	assert.Equal(t, 2, st.Focus)

	// the first box never moves focus backwards
	require.NoError(t, h.flow.Backspace(0))
	st = h.flow.State()
	assert.Equal(t, "", st.Digits[0])
	assert.Equal(t, 0, st.Focus)
	require.NoError(t, h.flow.Backspace(0))
	assert.Equal(t, 0, h.flow.State().Focus)

	assert.ErrorIs(t, h.flow.EnterDigit(ctx, 6, "1"), ErrDigitIndex)
	assert.ErrorIs(t, h.flow.Backspace(-1), ErrDigitIndex)

	_, verifies := h.backend.counts()
	assert.Zero(t, verifies)
}

func TestEnterDigit_AutoSubmitsOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)

	require.NoError(t, typeCode(h.flow, "123456"))

	_, verifies := h.backend.counts()
	assert.Equal(t, 1, verifies)
	assert.Equal(t, api.VerifyOTPRequest{PhoneNumber: "+254712345678", OTP: "123456"}, h.backend.verifies[0])
	assert.Equal(t, SuccessStep{PhoneNumber: "+254712345678", WalletAddress: "0xabc"}, h.flow.Step())

	// code entry is over
	assert.ErrorIs(t, h.flow.EnterDigit(context.Background(), 5, "7"), ErrInvalidStep)
	assert.ErrorIs(t, h.flow.Verify(context.Background()), ErrInvalidStep)
	_, verifies = h.backend.counts()
	assert.Equal(t, 1, verifies)
}

func TestEnterDigit_IgnoredWhileVerifying(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	h.backend.verify = func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
		close(entered)
		<-release
		return &api.VerifyOTPResponse{Success: false}, nil
	}

	done := make(chan error, 1)
	go func() { done <- typeCode(h.flow, "123456") }()
	<-entered

	assert.True(t, h.flow.State().Loading)
	assert.ErrorIs(t, h.flow.EnterDigit(context.Background(), 5, "9"), ErrBusy)
	assert.ErrorIs(t, h.flow.Verify(context.Background()), ErrBusy)
	assert.ErrorIs(t, h.flow.Back(), ErrBusy)

	h.clock.Advance(60 * time.Second)
	assert.ErrorIs(t, h.flow.Resend(context.Background()), ErrBusy)
	logins, _ := h.backend.counts()
	assert.Equal(t, 1, logins)

	close(release)
	assert.Error(t, <-done)
	_, verifies := h.backend.counts()
	assert.Equal(t, 1, verifies)
}

func TestVerify_IncompleteCode(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	require.NoError(t, typeCode(h.flow, "123"))

	err := h.flow.Verify(context.Background())
	assert.Equal(t, FieldErrors{FieldOTP: MsgIncompleteCode}, fieldErrors(t, err))

	_, verifies := h.backend.counts()
	assert.Zero(t, verifies)
	// digits are kept so the user can finish typing
	assert.Equal(t, "3", h.flow.State().Digits[2])
}

func TestVerify_FailureClearsCode(t *testing.T) {
	tests := []struct {
		name   string
		verify func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error)
		want   string
	}{
		{
			name: "rejected",
			verify: func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
				return &api.VerifyOTPResponse{Success: false, Message: "bad code"}, nil
			},
			want: MsgInvalidCode,
		},
		{
			name: "success without data",
			verify: func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
				return &api.VerifyOTPResponse{Success: true}, nil
			},
			want: MsgInvalidCode,
		},
		{
			name: "http error",
			verify: func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
				return nil, &api.APIError{StatusCode: 400, Message: "OTP expired"}
			},
			want: "OTP expired",
		},
		{
			name: "transport error",
			verify: func(api.VerifyOTPRequest) (*api.VerifyOTPResponse, error) {
				return nil, errors.New("connection refused")
			},
			want: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.toOTP(t)
			h.backend.verify = tt.verify

			err := typeCode(h.flow, "654321")
			assert.Equal(t, FieldErrors{FieldOTP: tt.want}, fieldErrors(t, err))

			st := h.flow.State()
			assert.Equal(t, [CodeLength]string{}, st.Digits)
			assert.Equal(t, 0, st.Focus)
			assert.False(t, st.Loading)
			assert.IsType(t, OTPStep{}, st.Step)

			// typing again clears the message and can succeed
			h.backend.verify = nil
			require.NoError(t, h.flow.EnterDigit(context.Background(), 0, "1"))
			assert.Empty(t, h.flow.State().Errors.Get(FieldOTP))
		})
	}
}

func TestResend_Countdown(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.flow.Resend(ctx), ErrResendNotReady)

	h.clock.Advance(59 * time.Second)
	st := h.flow.State()
	assert.Equal(t, 1, st.TimeLeft)
	assert.False(t, st.CanResend)

	h.clock.Advance(time.Second)
	st = h.flow.State()
	assert.Equal(t, 0, st.TimeLeft)
	assert.True(t, st.CanResend)

	require.NoError(t, typeCode(h.flow, "12"))
	require.NoError(t, h.flow.Resend(ctx))

	logins, _ := h.backend.counts()
	assert.Equal(t, 2, logins)
	assert.Equal(t, "secret", h.backend.logins[1].Password)

	st = h.flow.State()
	assert.Equal(t, 60, st.TimeLeft)
	assert.False(t, st.CanResend)
	assert.Equal(t, [CodeLength]string{}, st.Digits)
	assert.Equal(t, 0, st.Focus)
}

func TestResend_Failure(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	h.clock.Advance(60 * time.Second)
	h.backend.loginErr = errors.New("timeout")

	err := h.flow.Resend(context.Background())
	assert.Equal(t, FieldErrors{FieldGeneral: MsgResendFailed}, fieldErrors(t, err))

	st := h.flow.State()
	assert.True(t, st.CanResend)
	assert.False(t, st.Resending)
}

func TestSuccess_RedirectsAfterDelay(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	require.NoError(t, typeCode(h.flow, "123456"))

	assert.Empty(t, h.nav.Routes())
	h.clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, h.nav.Routes())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{nav.Dashboard}, h.nav.Routes())

	// the countdown was stopped on success
	assert.Zero(t, h.clock.Pending())
}

func TestClose_CancelsTimers(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	require.NoError(t, typeCode(h.flow, "123456"))

	h.flow.Close()
	h.clock.Advance(time.Minute)
	assert.Empty(t, h.nav.Routes())
	assert.ErrorIs(t, h.flow.Back(), ErrClosed)
	assert.ErrorIs(t, h.flow.SubmitCredentials(context.Background(), "0712345678", "x"), ErrClosed)

	h2 := newHarness(t, nil)
	h2.toOTP(t)
	h2.flow.Close()
	assert.Zero(t, h2.clock.Pending())
	assert.ErrorIs(t, h2.flow.EnterDigit(context.Background(), 0, "1"), ErrClosed)
}

func TestBack(t *testing.T) {
	h := newHarness(t, nil)
	h.toOTP(t)
	require.NoError(t, typeCode(h.flow, "12"))

	require.NoError(t, h.flow.Back())
	st := h.flow.State()
	assert.Equal(t, CredentialsStep{}, st.Step)
	assert.Equal(t, [CodeLength]string{}, st.Digits)
	assert.Empty(t, st.Errors)
	assert.False(t, st.CanResend)
	assert.Zero(t, h.clock.Pending())
	assert.Empty(t, h.nav.Routes())

	require.NoError(t, h.flow.Back())
	assert.Equal(t, nav.Landing, h.nav.Last())
}

func TestOnChangeIsCalled(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	h := newHarness(t, func(o *Options) {
		o.OnChange = func() {
			mu.Lock()
			calls++
			mu.Unlock()
		}
	})
	h.toOTP(t)
	h.clock.Advance(3 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	// loading on, otp step, three ticks
	assert.GreaterOrEqual(t, calls, 5)
}

func TestLoginAgainstBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write([]byte(`{"success":true,"message":"OTP sent"}`))
		case "/auth/login/verify":
			w.Write([]byte(`{"success":true,"data":{"token":"jwt-42","walletAddress":"0x52908400098527886E0F7030069857D2E4169EE7","phoneNumber":"+254712345678"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	client := api.NewClient(srv.URL, store)
	fake := clock.NewFake(time.Now())
	rec := &nav.Recorder{}
	opts := DefaultOptions()
	opts.Clock = fake
	flow := NewLoginFlow(client, rec, opts)
	defer flow.Close()

	require.NoError(t, flow.SubmitCredentials(context.Background(), "0712345678", "secret"))
	require.NoError(t, typeCode(flow, "123456"))

	sess, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "jwt-42", sess.Token)
	assert.Equal(t, "+254712345678", sess.PhoneNumber)
	assert.True(t, store.IsAuthenticated())

	fake.Advance(2 * time.Second)
	assert.Equal(t, nav.Dashboard, rec.Last())
}
