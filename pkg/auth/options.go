package auth

import (
	"context"
	"time"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/config"
)

// Backend is the part of the API client the auth screens use.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (*api.VerifyOTPResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.GenericResponse, error)
}

type Options struct {
	Clock         clock.Clock
	ResendAfter   int // seconds before another code may be requested
	RedirectDelay time.Duration
	// StrictDispatch keeps the login flow on the credentials step when the
	// code could not be sent.
	StrictDispatch bool
	// OnChange is called after every state change, without any lock held.
	OnChange func()
}

func DefaultOptions() Options {
	return Options{
		Clock:         clock.Real{},
		ResendAfter:   60,
		RedirectDelay: 2 * time.Second,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.ResendAfter = cfg.Auth.ResendSeconds
	opts.RedirectDelay = cfg.RedirectDelay()
	opts.StrictDispatch = cfg.Auth.StrictOTPDispatch
	return opts
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.ResendAfter < 0 {
		o.ResendAfter = 0
	}
	return o
}
