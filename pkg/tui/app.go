package tui

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/nexuspay/nexuspay/pkg/api"
	"github.com/nexuspay/nexuspay/pkg/auth"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/dashboard"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/nav"
	"github.com/nexuspay/nexuspay/pkg/session"
)

// App moves between screens until one of them leaves without a new route.
type App struct {
	Config *config.Config
	Client *api.Client
	Store  session.Store
	In     LineReader
	Out    io.Writer

	router *Router
}

// Run starts at route and returns when the user quits.
func (a *App) Run(ctx context.Context, route string) error {
	a.router = NewRouter()
	for route != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.DebugCF("tui", "Showing screen", map[string]any{"route": route})

		err := a.show(ctx, route)
		next := a.router.Next()
		switch {
		case next != "":
			route = next
		case err == nil, errors.Is(err, ErrAborted):
			return nil
		default:
			return err
		}
	}
	return nil
}

func (a *App) show(ctx context.Context, route string) error {
	u, err := url.Parse(route)
	if err != nil {
		return err
	}

	switch u.Path {
	case nav.Landing, nav.Dashboard:
		a.suspendInput()
	}

	switch u.Path {
	case nav.Landing:
		return NewLandingView(a.Store, a.router, clock.Real{}, a.Config.SlideInterval()).Run()

	case nav.Login:
		flow := auth.NewLoginFlow(a.Client, a.router, auth.OptionsFromConfig(a.Config))
		defer flow.Close()
		if err := RunLogin(ctx, a.In, a.Out, flow); err != nil {
			return err
		}
		return a.awaitRedirect(ctx)

	case nav.Signup:
		err := RunSignup(ctx, a.In, a.Out, auth.NewSignup(a.Client, a.router))
		if errors.Is(err, ErrAborted) {
			a.router.Navigate(nav.Landing)
			return nil
		}
		return err

	case nav.Verify:
		number := u.Query().Get("phone")
		if number == "" {
			a.router.Navigate(nav.Signup)
			return nil
		}
		flow := auth.NewVerifyFlow(a.Client, a.router, number, auth.OptionsFromConfig(a.Config))
		defer flow.Close()
		return RunVerify(ctx, a.In, a.Out, flow)

	case nav.Dashboard:
		ctrl := dashboard.New(a.Client, a.Store, a.router, a.Config)
		return NewDashboardView(ctrl).Run(ctx)

	default:
		logger.WarnCF("tui", "Unknown route", map[string]any{"route": route})
		a.router.Navigate(nav.Landing)
		return nil
	}
}

// suspendInput hands the terminal over to a full-screen view.
func (a *App) suspendInput() {
	if s, ok := a.In.(interface{ Suspend() error }); ok {
		if err := s.Suspend(); err != nil {
			logger.DebugCF("tui", "Releasing the prompt failed", map[string]any{"error": err.Error()})
		}
	}
}

// awaitRedirect holds the success message on screen until the login flow
// navigates on its own.
func (a *App) awaitRedirect(ctx context.Context) error {
	route := a.router.Wait(ctx, a.Config.RedirectDelay()+time.Second)
	if route == "" {
		route = nav.Dashboard
	}
	a.router.Navigate(route)
	return nil
}
