package posture

import (
	"testing"
	"time"
)

// recordingSounder counts start/stop calls for assertions.
type recordingSounder struct {
	starts int
	stops  int
	active bool
}

func (r *recordingSounder) Start() {
	r.starts++
	r.active = true
}

func (r *recordingSounder) Stop() {
	r.stops++
	r.active = false
}

func TestAlarmController_FiresAfterDelay(t *testing.T) {
	snd := &recordingSounder{}
	c := NewAlarmController(30*time.Second, snd)
	t0 := time.Unix(1000, 0)

	if st := c.Observe(true, t0); st != StateWatching {
		t.Fatalf("state after first bad frame = %v, want watching", st)
	}
	if snd.active {
		t.Fatal("alarm active before delay elapsed")
	}

	// 29.9s into the streak: still watching.
	if st := c.Observe(true, t0.Add(29900*time.Millisecond)); st != StateWatching {
		t.Errorf("state at 29.9s = %v, want watching", st)
	}
	if snd.active {
		t.Error("alarm active at 29.9s")
	}

	// Exactly the delay is not enough; activation requires strictly more.
	if st := c.Observe(true, t0.Add(30*time.Second)); st != StateWatching {
		t.Errorf("state at exactly 30s = %v, want watching", st)
	}

	// 30.1s: alarm fires.
	if st := c.Observe(true, t0.Add(30100*time.Millisecond)); st != StateAlarming {
		t.Errorf("state at 30.1s = %v, want alarming", st)
	}
	if !snd.active {
		t.Error("alarm not active at 30.1s")
	}
	if snd.starts != 1 {
		t.Errorf("sounder starts = %d, want 1", snd.starts)
	}
	if c.Episode() == "" {
		t.Error("no episode ID assigned on activation")
	}
}

func TestAlarmController_StaysOnWhileBad(t *testing.T) {
	snd := &recordingSounder{}
	c := NewAlarmController(time.Second, snd)
	t0 := time.Unix(1000, 0)

	c.Observe(true, t0)
	c.Observe(true, t0.Add(1100*time.Millisecond))

	episode := c.Episode()

	// Further bad frames keep the same episode and never restart the
	// sounder.
	for i := 0; i < 5; i++ {
		if st := c.Observe(true, t0.Add(time.Duration(2+i)*time.Second)); st != StateAlarming {
			t.Fatalf("state = %v, want alarming", st)
		}
	}

	if snd.starts != 1 {
		t.Errorf("sounder starts = %d, want 1", snd.starts)
	}
	if c.Episode() != episode {
		t.Errorf("episode changed mid-alarm: %q -> %q", episode, c.Episode())
	}
}

func TestAlarmController_GoodFrameResets(t *testing.T) {
	snd := &recordingSounder{}
	c := NewAlarmController(time.Second, snd)
	t0 := time.Unix(1000, 0)

	c.Observe(true, t0)
	c.Observe(true, t0.Add(1100*time.Millisecond))
	if !snd.active {
		t.Fatal("alarm should be active")
	}

	// A single good frame silences the alarm immediately and clears the
	// streak, with no residual delay on recovery.
	if st := c.Observe(false, t0.Add(2*time.Second)); st != StateIdle {
		t.Errorf("state after good frame = %v, want idle", st)
	}
	if snd.active {
		t.Error("alarm still active after good frame")
	}
	if snd.stops != 1 {
		t.Errorf("sounder stops = %d, want 1", snd.stops)
	}
	if _, ok := c.BadSince(); ok {
		t.Error("badSince not cleared by good frame")
	}
	if c.Episode() != "" {
		t.Error("episode not cleared by good frame")
	}

	// The next bad frame starts a fresh streak from its own timestamp.
	t1 := t0.Add(3 * time.Second)
	c.Observe(true, t1)
	since, ok := c.BadSince()
	if !ok || !since.Equal(t1) {
		t.Errorf("badSince = %v (%v), want %v", since, ok, t1)
	}
	if st := c.Observe(true, t1.Add(900*time.Millisecond)); st != StateWatching {
		t.Errorf("state 0.9s into new streak = %v, want watching", st)
	}
}

func TestAlarmController_GoodFrameWhileWatching(t *testing.T) {
	snd := &recordingSounder{}
	c := NewAlarmController(time.Second, snd)
	t0 := time.Unix(1000, 0)

	c.Observe(true, t0)
	c.Observe(false, t0.Add(500*time.Millisecond))

	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	// The sounder was never started, so it must not be stopped either.
	if snd.stops != 0 {
		t.Errorf("sounder stops = %d, want 0", snd.stops)
	}

	// Oscillation near the boundary never accumulates time across good
	// frames.
	c.Observe(true, t0.Add(time.Second))
	c.Observe(true, t0.Add(1900*time.Millisecond))
	if c.State() != StateWatching {
		t.Errorf("state = %v, want watching (timer restarted)", c.State())
	}
	if snd.starts != 0 {
		t.Errorf("sounder starts = %d, want 0", snd.starts)
	}
}

func TestAlarmController_Reset(t *testing.T) {
	snd := &recordingSounder{}
	c := NewAlarmController(time.Second, snd)
	t0 := time.Unix(1000, 0)

	c.Observe(true, t0)
	c.Observe(true, t0.Add(2*time.Second))
	if c.State() != StateAlarming {
		t.Fatalf("state = %v, want alarming", c.State())
	}

	c.Reset()
	if c.State() != StateIdle {
		t.Errorf("state after Reset = %v, want idle", c.State())
	}
	if snd.active {
		t.Error("alarm still active after Reset")
	}

	// Reset is idempotent: a second call must not touch the sounder again.
	c.Reset()
	if snd.stops != 1 {
		t.Errorf("sounder stops = %d, want 1", snd.stops)
	}
}

func TestAlarmController_SetDelay(t *testing.T) {
	c := NewAlarmController(30*time.Second, &recordingSounder{})

	if err := c.SetDelay(0); err == nil {
		t.Error("SetDelay(0) succeeded, want error")
	}
	if err := c.SetDelay(-time.Second); err == nil {
		t.Error("SetDelay(-1s) succeeded, want error")
	}
	if err := c.SetDelay(5 * time.Second); err != nil {
		t.Errorf("SetDelay(5s) error = %v", err)
	}
	if c.Delay() != 5*time.Second {
		t.Errorf("Delay() = %v, want 5s", c.Delay())
	}
}

func TestAlarmController_DefaultDelay(t *testing.T) {
	c := NewAlarmController(0, &recordingSounder{})
	if c.Delay() != DefaultAlarmDelay {
		t.Errorf("Delay() = %v, want %v", c.Delay(), DefaultAlarmDelay)
	}
}
