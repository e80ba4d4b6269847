package auth

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/phone"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type SignupForm struct {
	PhoneNumber     string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate returns the normalized phone number and the field errors, if any.
func (sf SignupForm) Validate() (string, FieldErrors) {
	errs := FieldErrors{}

	number, msg := validatePhone(sf.PhoneNumber)
	if msg != "" {
		errs[FieldPhone] = msg
	}

	switch email := strings.TrimSpace(sf.Email); {
	case email == "":
		errs[FieldEmail] = MsgEmailRequired
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = MsgEmailInvalid
	}

	switch {
	case sf.Password == "":
		errs[FieldPassword] = MsgPasswordRequired
	case len(sf.Password) < minPasswordLength:
		errs[FieldPassword] = MsgPasswordShort
	}

	if sf.Password != sf.ConfirmPassword {
		errs[FieldConfirm] = MsgPasswordMismatch
	}
	return number, errs
}

// Signup registers an account and hands over to the verify screen.
type Signup struct {
	backend Backend
	nav     nav.Navigator

	mu      sync.Mutex
	loading bool
	errors  FieldErrors
}

func NewSignup(b Backend, n nav.Navigator) *Signup {
	return &Signup{backend: b, nav: n, errors: FieldErrors{}}
}

func (s *Signup) Errors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.clone()
}

func (s *Signup) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Submit validates form and registers it with phone verification. On
// success it navigates to the verify screen for the normalized number.
func (s *Signup) Submit(ctx context.Context, form SignupForm) error {
	number, errs := form.Validate()

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if len(errs) > 0 {
		s.errors = errs
		s.mu.Unlock()
		return errs.clone()
	}
	s.errors = FieldErrors{}
	s.loading = true
	s.mu.Unlock()

	resp, err := s.backend.Register(ctx, api.RegisterRequest{
		PhoneNumber: number,
		Email:       strings.TrimSpace(form.Email),
		Password:    form.Password,
		VerifyWith:  api.VerifyWithPhone,
	})

	s.mu.Lock()
	s.loading = false
	var general string
	switch {
	case err != nil:
		general = err.Error()
		if general == "" {
			general = MsgRegisterError
		}
		logger.WarnCF("auth", "Registration failed", map[string]any{
			"phone": phone.Mask(number),
			"error": err.Error(),
		})
	case resp == nil || !resp.Success:
		general = MsgRegisterFailed
		if resp != nil && resp.Message != "" {
			general = resp.Message
		}
	}
	if general != "" {
		s.errors = FieldErrors{FieldGeneral: general}
		result := s.errors.clone()
		s.mu.Unlock()
		return result
	}
	s.mu.Unlock()

	logger.InfoCF("auth", "Account registered", map[string]any{"phone": phone.Mask(number)})
	s.nav.Navigate(nav.VerifyRoute(number))
	return nil
}
