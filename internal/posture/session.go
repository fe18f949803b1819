package posture

import (
	"fmt"
	"sync"
	"time"
)

// Config holds the initial settings for a monitoring session. Zero values
// fall back to defaults.
type Config struct {
	Sensitivity int
	AlarmDelay  time.Duration
	Sounder     Sounder
	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Session owns the calibrated baseline, the sensitivity and alarm-delay
// settings, and the alarm controller for one monitoring run. The frame
// pipeline feeds it keypoints through OnFrame; control surfaces issue
// commands (RequestCalibration, SetSensitivity, SetAlarmDelay, Shutdown)
// against it. No other component holds or mutates this state.
type Session struct {
	mu               sync.Mutex
	baseline         Baseline
	sensitivity      int
	alarm            *AlarmController
	calibratePending bool
	lastVerdict      *Verdict
	now              func() time.Time
}

// NewSession creates a session with the given settings. The session
// starts uncalibrated: OnFrame returns ErrUncalibrated until a
// calibration has been requested and applied.
func NewSession(cfg Config) (*Session, error) {
	sensitivity := cfg.Sensitivity
	if sensitivity == 0 {
		sensitivity = DefaultSensitivity
	}
	if sensitivity < MinSensitivity || sensitivity > MaxSensitivity {
		return nil, fmt.Errorf("sensitivity must be in [%d,%d], got %d",
			MinSensitivity, MaxSensitivity, sensitivity)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	sounder := cfg.Sounder
	if sounder == nil {
		sounder = noopSounder{}
	}

	return &Session{
		sensitivity: sensitivity,
		alarm:       NewAlarmController(cfg.AlarmDelay, sounder),
		now:         now,
	}, nil
}

// noopSounder keeps the session usable when no tone device is wired up.
type noopSounder struct{}

func (noopSounder) Start() {}
func (noopSounder) Stop()  {}

// OnFrame consumes one keypoint set, exactly once per captured frame. A
// pending calibration request is applied first and the same frame is then
// classified against the fresh baseline. Frame N is fully processed,
// alarm update included, before OnFrame may be called for frame N+1.
//
// Returns ErrUncalibrated until a calibration has succeeded and
// ErrInvalidKeypoints for a nil set.
func (s *Session) OnFrame(ks *KeypointSet) (Verdict, error) {
	if ks == nil {
		return Verdict{}, ErrInvalidKeypoints
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibratePending {
		// Install the new baseline atomically and drop all hysteresis
		// state accumulated against the old one.
		s.baseline = Calibrate(ks)
		s.calibratePending = false
		s.lastVerdict = nil
		s.alarm.Reset()
	}

	v, err := Classify(ks, s.baseline, s.sensitivity)
	if err != nil {
		return Verdict{}, err
	}

	s.alarm.Observe(v.Bad, s.now())
	s.lastVerdict = &v
	return v, nil
}

// RequestCalibration arms calibration. It takes effect on the next frame
// that reaches OnFrame with a valid keypoint set; until then the old
// baseline stays visible.
func (s *Session) RequestCalibration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibratePending = true
}

// CalibrationPending reports whether a calibration request is waiting for
// the next valid frame.
func (s *Session) CalibrationPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibratePending
}

// Calibrated reports whether a baseline has been installed.
func (s *Session) Calibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Calibrated()
}

// Baseline returns the current baseline. The zero value means
// uncalibrated.
func (s *Session) Baseline() Baseline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline
}

// Sensitivity returns the current sensitivity level.
func (s *Session) Sensitivity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensitivity
}

// SetSensitivity updates the sensitivity level, rejecting values outside
// [MinSensitivity, MaxSensitivity].
func (s *Session) SetSensitivity(v int) error {
	if v < MinSensitivity || v > MaxSensitivity {
		return fmt.Errorf("sensitivity must be in [%d,%d], got %d",
			MinSensitivity, MaxSensitivity, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensitivity = v
	return nil
}

// AlarmDelay returns the configured alarm delay.
func (s *Session) AlarmDelay() time.Duration {
	return s.alarm.Delay()
}

// SetAlarmDelay updates the alarm delay. Non-positive delays are
// rejected.
func (s *Session) SetAlarmDelay(d time.Duration) error {
	return s.alarm.SetDelay(d)
}

// AlarmState returns the alarm controller's current state.
func (s *Session) AlarmState() State {
	return s.alarm.State()
}

// Status is a point-in-time snapshot of the session for control surfaces
// and overlay rendering.
type Status struct {
	Calibrated         bool     `json:"calibrated"`
	CalibrationPending bool     `json:"calibrationPending"`
	Sensitivity        int      `json:"sensitivity"`
	AlarmDelaySeconds  float64  `json:"alarmDelaySeconds"`
	AlarmState         State    `json:"alarmState"`
	Episode            string   `json:"episode,omitempty"`
	Verdict            *Verdict `json:"verdict,omitempty"`
}

// Status returns a snapshot of the session, including the verdict of the
// most recently classified frame.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Calibrated:         s.baseline.Calibrated(),
		CalibrationPending: s.calibratePending,
		Sensitivity:        s.sensitivity,
		AlarmDelaySeconds:  s.alarm.Delay().Seconds(),
		AlarmState:         s.alarm.State(),
		Episode:            s.alarm.Episode(),
	}
	if s.lastVerdict != nil {
		v := *s.lastVerdict
		st.Verdict = &v
	}
	return st
}

// Shutdown deactivates any active alarm and returns the controller to
// Idle. Safe to call more than once; part of the orderly stop path, which
// must silence the alarm before camera resources are released.
func (s *Session) Shutdown() {
	s.alarm.Reset()
}
