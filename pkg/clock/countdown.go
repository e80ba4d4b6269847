package clock

import (
	"fmt"
	"sync"
	"time"
)

// Countdown ticks once per step from a starting value down to zero.
// Restarting or stopping it invalidates any tick already scheduled.
type Countdown struct {
	clock  Clock
	step   time.Duration
	onTick func(remaining int)

	mu        sync.Mutex
	remaining int
	gen       uint64
	timer     Timer
}

// NewCountdown builds a stopped countdown. onTick, when set, is called after
// every decrement without the countdown's lock held.
func NewCountdown(c Clock, step time.Duration, onTick func(remaining int)) *Countdown {
	return &Countdown{clock: c, step: step, onTick: onTick}
}

// Start (re)starts the countdown at from.
func (cd *Countdown) Start(from int) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.stopLocked()
	cd.remaining = from
	if from > 0 {
		cd.scheduleLocked()
	}
}

// Stop cancels the pending tick. Remaining keeps its value.
func (cd *Countdown) Stop() {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.stopLocked()
}

func (cd *Countdown) Remaining() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.remaining
}

func (cd *Countdown) Done() bool {
	return cd.Remaining() == 0
}

func (cd *Countdown) stopLocked() {
	cd.gen++
	if cd.timer != nil {
		cd.timer.Stop()
		cd.timer = nil
	}
}

func (cd *Countdown) scheduleLocked() {
	gen := cd.gen
	cd.timer = cd.clock.AfterFunc(cd.step, func() { cd.tick(gen) })
}

func (cd *Countdown) tick(gen uint64) {
	cd.mu.Lock()
	if gen != cd.gen {
		cd.mu.Unlock()
		return
	}
	cd.remaining--
	remaining := cd.remaining
	if remaining > 0 {
		cd.scheduleLocked()
	} else {
		cd.timer = nil
	}
	cd.mu.Unlock()

	if cd.onTick != nil {
		cd.onTick(remaining)
	}
}

// FormatMMSS renders seconds as m:ss.
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
