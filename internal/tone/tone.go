// Package tone drives the audible alarm: a repeating pulse emitted on its
// own goroutine while the alarm is active.
package tone

import (
	"log"
	"sync"
	"time"
)

// DefaultInterval is the pause between pulses.
const DefaultInterval = 700 * time.Millisecond

// Emitter produces a single audible pulse. Failures are swallowed by the
// loop so a broken sound device never interrupts posture monitoring.
type Emitter interface {
	Pulse() error
}

// Looper runs the repeating-pulse loop. Start and Stop are idempotent and
// at most one loop instance runs at a time, even under rapid start/stop
// oscillation. Looper satisfies the alarm controller's Sounder interface.
type Looper struct {
	emitter  Emitter
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewLooper creates a Looper pulsing the emitter every interval.
// Non-positive intervals fall back to DefaultInterval.
func NewLooper(emitter Emitter, interval time.Duration) *Looper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Looper{
		emitter:  emitter,
		interval: interval,
	}
}

// Start launches the pulse loop. A no-op if the loop is already running.
func (l *Looper) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop != nil {
		return
	}

	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
}

// Stop terminates the pulse loop and waits for it to exit, so no emission
// outlives the caller that stopped it. A no-op if the loop is not
// running.
func (l *Looper) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}

// Running reports whether the pulse loop is active.
func (l *Looper) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}

func (l *Looper) run(stop, done chan struct{}) {
	defer close(done)

	// Warn once per run, not once per pulse.
	var warned bool
	pulse := func() {
		if err := l.emitter.Pulse(); err != nil && !warned {
			warned = true
			log.Printf("Tone emitter failed, alarm will be silent: %v", err)
		}
	}

	pulse()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pulse()
		}
	}
}
