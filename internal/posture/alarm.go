package posture

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the alarm controller's debounce state.
type State string

const (
	// StateIdle means no bad-posture streak is in progress.
	StateIdle State = "idle"
	// StateWatching means a bad-posture streak is in progress but has not
	// yet outlasted the alarm delay.
	StateWatching State = "watching"
	// StateAlarming means the alarm is on.
	StateAlarming State = "alarming"
)

// Sounder starts and stops the external tone-emission loop. Both calls
// must be idempotent: starting an active sounder and stopping an inactive
// one are no-ops.
type Sounder interface {
	Start()
	Stop()
}

// Default operator settings, matching the original control ranges.
const (
	DefaultSensitivity = 8
	DefaultAlarmDelay  = 30 * time.Second
)

// AlarmController turns the per-frame verdict stream into alarm start and
// stop transitions. Bad posture must persist longer than the configured
// delay before the alarm fires, and a single good frame resets the whole
// streak, alarm included.
type AlarmController struct {
	mu       sync.Mutex
	delay    time.Duration
	sounder  Sounder
	state    State
	badSince time.Time
	episode  string
}

// NewAlarmController creates a controller in the Idle state.
func NewAlarmController(delay time.Duration, sounder Sounder) *AlarmController {
	if delay <= 0 {
		delay = DefaultAlarmDelay
	}
	return &AlarmController{
		delay:   delay,
		sounder: sounder,
		state:   StateIdle,
	}
}

// Observe feeds one verdict evaluated at wall-clock time now and returns
// the resulting state.
func (c *AlarmController) Observe(bad bool, now time.Time) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !bad {
		// A single good frame clears the streak and silences the alarm
		// immediately. There is no grace period on the recovery side.
		c.resetLocked()
		return c.state
	}

	switch c.state {
	case StateIdle:
		c.badSince = now
		c.state = StateWatching
	case StateWatching:
		if now.Sub(c.badSince) > c.delay {
			c.state = StateAlarming
			c.episode = uuid.NewString()
			c.sounder.Start()
		}
	case StateAlarming:
		// Stays on until a good frame or a recalibration.
	}

	return c.state
}

// Reset forces the controller back to Idle and stops an active alarm.
// Invoked on recalibration and on session shutdown, regardless of the
// current state.
func (c *AlarmController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *AlarmController) resetLocked() {
	c.badSince = time.Time{}
	c.episode = ""
	if c.state == StateAlarming {
		c.sounder.Stop()
	}
	c.state = StateIdle
}

// State returns the current debounce state.
func (c *AlarmController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Episode returns the ID of the current alarm episode, or "" when the
// alarm is not active.
func (c *AlarmController) Episode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episode
}

// BadSince returns when the current bad-posture streak started.
func (c *AlarmController) BadSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.badSince, !c.badSince.IsZero()
}

// Delay returns the configured alarm delay.
func (c *AlarmController) Delay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delay
}

// SetDelay updates the alarm delay. The new delay applies to the current
// streak as well. Non-positive delays are rejected.
func (c *AlarmController) SetDelay(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("alarm delay must be positive, got %v", d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
	return nil
}
