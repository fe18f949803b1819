package app

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/postura/internal/capture"
	"github.com/ayusman/postura/internal/detector"
	"github.com/ayusman/postura/internal/posture"
)

// countingSounder records alarm activations without making noise.
type countingSounder struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (s *countingSounder) Start() {
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
}

func (s *countingSounder) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *countingSounder) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// wakeFrames returns alternating black and white frames. The frame-to-frame
// difference keeps the wake detector permanently in active mode.
func wakeFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Cleanup(func() {
		black.Close()
		white.Close()
	})

	return []*gocv.Mat{&black, &white}
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestApp_PipelineCalibratesAndAlarms(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	sounder := &countingSounder{}
	session, err := posture.NewSession(posture.Config{
		AlarmDelay: 300 * time.Millisecond,
		Sounder:    sounder,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	a := New(Config{Session: session, WakeThreshold: 0.5})

	mockCamera := capture.NewMockCamera(wakeFrames(t), true)
	a.SetCamera(mockCamera)

	mockDetector := detector.NewMockDetector()
	mockDetector.SetPose(detector.UprightPose())
	a.SetDetector(mockDetector)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	a.SetEnabled(true)
	session.RequestCalibration()

	// The next valid frame installs the baseline.
	if !waitFor(t, 3*time.Second, session.Calibrated) {
		t.Fatal("session never calibrated")
	}

	// Upright posture keeps the alarm idle.
	time.Sleep(200 * time.Millisecond)
	if got := session.AlarmState(); got != posture.StateIdle {
		t.Fatalf("alarm state = %s, want %s while upright", got, posture.StateIdle)
	}

	// Hunch until the delay elapses: the alarm must fire.
	mockDetector.SetPose(detector.HunchedPose())
	if !waitFor(t, 3*time.Second, func() bool {
		return session.AlarmState() == posture.StateAlarming
	}) {
		t.Fatal("alarm never fired while hunching")
	}
	if sounder.Starts() == 0 {
		t.Error("sounder was never started")
	}

	// A single upright frame silences it.
	mockDetector.SetPose(detector.UprightPose())
	if !waitFor(t, 3*time.Second, func() bool {
		return session.AlarmState() == posture.StateIdle
	}) {
		t.Fatal("alarm never reset after sitting upright")
	}

	// The pipeline published annotated frames for stream clients.
	if _, ok := a.LatestFrame(); !ok {
		t.Error("no frame was published")
	}
}

func TestApp_SourceExhaustedStopsPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	session, err := posture.NewSession(posture.Config{})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	a := New(Config{Session: session})

	// Two frames, no loop: the source runs dry almost immediately.
	mockCamera := capture.NewMockCamera(wakeFrames(t), false)
	a.SetCamera(mockCamera)
	a.SetDetector(detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.SetEnabled(true)

	// The pipeline notices the exhausted source and shuts everything down.
	if !waitFor(t, 3*time.Second, func() bool {
		return !mockCamera.IsOpen()
	}) {
		t.Fatal("pipeline did not shut down after the source was exhausted")
	}

	// A second Stop must be harmless.
	a.Stop()
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	session, err := posture.NewSession(posture.Config{})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	a := New(Config{Session: session})
	a.SetCamera(capture.NewMockCamera(wakeFrames(t), true))
	a.SetDetector(detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Start while running is a no-op.
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	a.Stop()
	a.Stop()

	if a.Camera().IsOpen() {
		t.Error("camera still open after Stop")
	}
}
