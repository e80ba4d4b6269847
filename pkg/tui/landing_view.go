package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nexuspay/nexuspay/pkg/auth"
	"github.com/nexuspay/nexuspay/pkg/clock"
	"github.com/nexuspay/nexuspay/pkg/nav"
)

// LandingView is the splash screen with the rotating slides.
type LandingView struct {
	app     *tview.Application
	text    *tview.TextView
	landing *auth.Landing
	nav     nav.Navigator
}

func NewLandingView(a auth.Authenticator, n nav.Navigator, c clock.Clock, interval time.Duration) *LandingView {
	v := &LandingView{
		app:  tview.NewApplication(),
		text: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		nav:  n,
	}
	v.landing = auth.NewLanding(a, n, c, interval, func() {
		v.app.QueueUpdateDraw(v.render)
	})
	v.text.SetBorder(true)
	return v
}

func (v *LandingView) SetScreen(s tcell.Screen) {
	v.app.SetScreen(s)
}

// Run shows the slides until the user picks a screen or quits. A signed-in
// user is sent to the dashboard without drawing anything.
func (v *LandingView) Run() error {
	if v.landing.Start() {
		return nil
	}
	defer v.landing.Close()

	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyLeft:
			v.landing.GoTo((v.landing.Current() + len(auth.Slides) - 1) % len(auth.Slides))
			return nil
		case tcell.KeyRight:
			v.landing.GoTo((v.landing.Current() + 1) % len(auth.Slides))
			return nil
		case tcell.KeyEscape:
			v.app.Stop()
			return nil
		case tcell.KeyRune:
		default:
			return ev
		}
		switch ev.Rune() {
		case 'l':
			v.leave(nav.Login)
		case 's':
			v.leave(nav.Signup)
		case 'q':
			v.app.Stop()
		default:
			return ev
		}
		return nil
	})

	v.render()
	return v.app.SetRoot(v.text, true).Run()
}

func (v *LandingView) leave(route string) {
	v.app.Stop()
	v.nav.Navigate(route)
}

func (v *LandingView) render() {
	v.text.SetText(SlideText(v.landing.Current()))
}

// SlideText renders slide i with its position dots and the key help.
func SlideText(i int) string {
	s := auth.Slides[i]
	dots := make([]string, len(auth.Slides))
	for j := range dots {
		dots[j] = "○"
		if j == i {
			dots[j] = "●"
		}
	}
	return fmt.Sprintf("\n\n[::b]%s[::-]\n\n%s\n\n%s\n\n\n[yellow]l[-] log in   [yellow]s[-] sign up   [yellow]←/→[-] slides   [yellow]q[-] quit",
		s.Title, s.Description, strings.Join(dots, " "))
}
