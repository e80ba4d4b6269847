package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/session"
)

func validForm() SignupForm {
	return SignupForm{
		PhoneNumber:     "0712 345 678",
		Email:           "wanjiku@example.co.ke",
		Password:        "longenough",
		ConfirmPassword: "longenough",
	}
}

func TestSignupForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupForm)
		want   FieldErrors
	}{
		{"valid", func(*SignupForm) {}, FieldErrors{}},
		{"missing email", func(f *SignupForm) { f.Email = "  " }, FieldErrors{FieldEmail: MsgEmailRequired}},
		{"bad email", func(f *SignupForm) { f.Email = "wanjiku@example" }, FieldErrors{FieldEmail: MsgEmailInvalid}},
		{"upper case email", func(f *SignupForm) { f.Email = "WANJIKU@EXAMPLE.COM" }, FieldErrors{}},
		{"short password", func(f *SignupForm) { f.Password, f.ConfirmPassword = "short", "short" }, FieldErrors{FieldPassword: MsgPasswordShort}},
		{"missing password", func(f *SignupForm) { f.Password = "" }, FieldErrors{FieldPassword: MsgPasswordRequired, FieldConfirm: MsgPasswordMismatch}},
		{"mismatch", func(f *SignupForm) { f.ConfirmPassword = "different1" }, FieldErrors{FieldConfirm: MsgPasswordMismatch}},
		{"bad phone", func(f *SignupForm) { f.PhoneNumber = "12" }, FieldErrors{FieldPhone: MsgPhoneInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			_, errs := form.Validate()
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestSignup_Submit(t *testing.T) {
	var got api.RegisterRequest
	backend := &fakeBackend{register: func(req api.RegisterRequest) (*api.GenericResponse, error) {
		got = req
		return &api.GenericResponse{Success: true}, nil
	}}
	rec := &nav.Recorder{}

	s := NewSignup(backend, rec)
	require.NoError(t, s.Submit(context.Background(), validForm()))

	assert.Equal(t, api.RegisterRequest{
		PhoneNumber: "+254712345678",
		Email:       "wanjiku@example.co.ke",
		Password:    "longenough",
		VerifyWith:  "phone",
	}, got)
	assert.Equal(t, "/auth/verify?phone=%2B254712345678", rec.Last())
	assert.False(t, s.Loading())
}

func TestSignup_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp *api.GenericResponse
		err  error
		want string
	}{
		{"backend message", &api.GenericResponse{Success: false, Message: "Phone already registered"}, nil, "Phone already registered"},
		{"no message", &api.GenericResponse{Success: false}, nil, MsgRegisterFailed},
		{"http error", nil, &api.APIError{StatusCode: 409, Message: "User exists"}, "User exists"},
		{"bare error", nil, errors.New(""), MsgRegisterError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{register: func(api.RegisterRequest) (*api.GenericResponse, error) {
				return tt.resp, tt.err
			}}
			rec := &nav.Recorder{}
			s := NewSignup(backend, rec)

			err := s.Submit(context.Background(), validForm())
			assert.Equal(t, FieldErrors{FieldGeneral: tt.want}, fieldErrors(t, err))
			assert.Equal(t, tt.want, s.Errors().Get(FieldGeneral))
			assert.Empty(t, rec.Routes())
		})
	}
}

func TestSignup_InvalidFormSkipsBackend(t *testing.T) {
	called := false
	backend := &fakeBackend{register: func(api.RegisterRequest) (*api.GenericResponse, error) {
		called = true
		return &api.GenericResponse{Success: true}, nil
	}}
	s := NewSignup(backend, &nav.Recorder{})

	form := validForm()
	form.Email = ""
	assert.Error(t, s.Submit(context.Background(), form))
	assert.False(t, called)
}

func newVerify(t *testing.T, phoneNumber string) (*VerifyFlow, *fakeBackend, *clock.Fake, *nav.Recorder) {
	t.Helper()
	backend := &fakeBackend{}
	fake := clock.NewFake(time.Now())
	rec := &nav.Recorder{}
	opts := DefaultOptions()
	opts.Clock = fake
	v := NewVerifyFlow(backend, rec, phoneNumber, opts)
	t.Cleanup(v.Close)
	return v, backend, fake, rec
}

func TestVerifyFlow_Success(t *testing.T) {
	v, backend, _, rec := newVerify(t, "+254712345678")

	st := v.State()
	assert.Equal(t, 60, st.TimeLeft)
	assert.Equal(t, "+254***345678", st.MaskedPhone)

	require.NoError(t, typeCode(v, "123456"))
	require.Len(t, backend.verifies, 1)
	assert.Equal(t, "+254712345678", backend.verifies[0].PhoneNumber)
	assert.Equal(t, []string{nav.Dashboard}, rec.Routes())
}

func TestVerifyFlow_MissingPhone(t *testing.T) {
	v, backend, _, rec := newVerify(t, "")

	err := typeCode(v, "123456")
	assert.Equal(t, FieldErrors{FieldGeneral: MsgPhoneMissing}, fieldErrors(t, err))
	assert.Empty(t, backend.verifies)
	assert.Empty(t, rec.Routes())
}

func TestVerifyFlow_Resend(t *testing.T) {
	v, backend, fake, _ := newVerify(t, "+254712345678")

	assert.ErrorIs(t, v.Resend(context.Background()), ErrResendNotReady)
	fake.Advance(time.Minute)
	require.NoError(t, v.Resend(context.Background()))

	require.Len(t, backend.logins, 1)
	assert.Equal(t, api.LoginRequest{PhoneNumber: "+254712345678", Password: "resend"}, backend.logins[0])
	assert.Equal(t, 60, v.State().TimeLeft)
}

func TestVerifyFlow_Back(t *testing.T) {
	v, _, fake, rec := newVerify(t, "+254712345678")
	v.Back()
	assert.Equal(t, nav.Signup, rec.Last())
	assert.Zero(t, fake.Pending())
}

type staticAuth bool

func (a staticAuth) IsAuthenticated() bool { return bool(a) }

func TestLanding_RedirectsWhenAuthenticated(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.Session{Token: "jwt"}))
	rec := &nav.Recorder{}
	fake := clock.NewFake(time.Now())

	l := NewLanding(store, rec, fake, 5*time.Second, nil)
	assert.True(t, l.Start())
	assert.Equal(t, nav.Dashboard, rec.Last())
	assert.Zero(t, fake.Pending())
}

func TestLanding_Slideshow(t *testing.T) {
	rec := &nav.Recorder{}
	fake := clock.NewFake(time.Now())
	changes := 0
	l := NewLanding(staticAuth(false), rec, fake, 5*time.Second, func() { changes++ })

	assert.False(t, l.Start())
	assert.Equal(t, 0, l.Current())
	assert.Equal(t, "Welcome to NexusPay", l.Slide().Title)

	fake.Advance(5 * time.Second)
	assert.Equal(t, 1, l.Current())
	fake.Advance(10 * time.Second)
	assert.Equal(t, 0, l.Current(), "wraps after the last slide")

	l.GoTo(2)
	fake.Advance(4 * time.Second)
	assert.Equal(t, 2, l.Current())
	fake.Advance(time.Second)
	assert.Equal(t, 0, l.Current())
	assert.Equal(t, 5, changes)

	l.Close()
	fake.Advance(time.Minute)
	assert.Equal(t, 0, l.Current())
	assert.Empty(t, rec.Routes())
}
