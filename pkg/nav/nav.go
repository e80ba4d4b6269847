// Package nav names the client's screens and the navigator that moves between them.
package nav

import (
	"net/url"
	"sync"
)

const (
	Landing   = "/"
	Login     = "/auth/login"
	Signup    = "/auth/signup"
	Verify    = "/auth/verify"
	Dashboard = "/dashboard"
)

// Navigator switches the active screen.
type Navigator interface {
	Navigate(route string)
}

// Func adapts a function to Navigator.
type Func func(route string)

func (f Func) Navigate(route string) { f(route) }

// VerifyRoute builds the verification screen route for a phone number.
func VerifyRoute(phoneNumber string) string {
	return Verify + "?phone=" + url.QueryEscape(phoneNumber)
}

// Recorder remembers every route it was asked to navigate to.
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *Recorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Last returns the most recent route, or "" if none.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
