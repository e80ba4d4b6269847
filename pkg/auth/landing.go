package auth

import (
	"sync"
	"time"

	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/nav"
)

type Slide struct {
	Title       string
	Description string
}

var Slides = []Slide{
	{Title: "Welcome to NexusPay", Description: "Pay bills with crypto instantly using M-Pesa integration"},
	{Title: "Fast & Secure Payments", Description: "Convert USDC to KES and pay paybills or till numbers directly"},
	{Title: "Crypto Made Simple", Description: "No complex blockchain knowledge needed - just simple payments"},
}

// Authenticator reports whether a session is present.
type Authenticator interface {
	IsAuthenticated() bool
}

// Landing is the splash screen: signed-in users go straight to the
// dashboard, everyone else sees the slides rotate.
type Landing struct {
	auth     Authenticator
	nav      nav.Navigator
	clock    clock.Clock
	interval time.Duration
	onChange func()

	mu      sync.Mutex
	current int
	running bool
	gen     uint64
	timer   clock.Timer
}

func NewLanding(a Authenticator, n nav.Navigator, c clock.Clock, interval time.Duration, onChange func()) *Landing {
	if c == nil {
		c = clock.Real{}
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Landing{auth: a, nav: n, clock: c, interval: interval, onChange: onChange}
}

// Start redirects to the dashboard when authenticated and reports true.
// Otherwise it starts the slideshow and reports false.
func (l *Landing) Start() bool {
	if l.auth.IsAuthenticated() {
		l.nav.Navigate(nav.Dashboard)
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		l.running = true
		l.scheduleLocked()
	}
	return false
}

func (l *Landing) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Landing) Slide() Slide {
	return Slides[l.Current()]
}

// GoTo shows slide i and restarts the rotation interval.
func (l *Landing) GoTo(i int) {
	if i < 0 || i >= len(Slides) {
		return
	}
	l.mu.Lock()
	l.current = i
	if l.running {
		l.cancelLocked()
		l.scheduleLocked()
	}
	l.mu.Unlock()
	l.changed()
}

// Close stops the rotation.
func (l *Landing) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	l.cancelLocked()
}

func (l *Landing) scheduleLocked() {
	gen := l.gen
	l.timer = l.clock.AfterFunc(l.interval, func() { l.advance(gen) })
}

func (l *Landing) cancelLocked() {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Landing) advance(gen uint64) {
	l.mu.Lock()
	if gen != l.gen || !l.running {
		l.mu.Unlock()
		return
	}
	l.current = (l.current + 1) % len(Slides)
	l.scheduleLocked()
	l.mu.Unlock()
	l.changed()
}

func (l *Landing) changed() {
	if l.onChange != nil {
		l.onChange()
	}
}
