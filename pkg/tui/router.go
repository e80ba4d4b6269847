package tui

import (
	"context"
	"time"
)

// Router is a Navigator that hands the requested route to the screen loop.
// Only the latest request is kept.
type Router struct {
	ch chan string
}

func NewRouter() *Router {
	return &Router{ch: make(chan string, 1)}
}

func (r *Router) Navigate(route string) {
	for {
		select {
		case r.ch <- route:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// Next returns the pending route, or "" when there is none.
func (r *Router) Next() string {
	select {
	case route := <-r.ch:
		return route
	default:
		return ""
	}
}

// Wait blocks up to d for a route. It returns "" on timeout.
func (r *Router) Wait(ctx context.Context, d time.Duration) string {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case route := <-r.ch:
		return route
	case <-t.C:
		return ""
	case <-ctx.Done():
		return ""
	}
}
