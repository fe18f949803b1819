package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results. Safe for concurrent
// use: tests swap poses while the pipeline goroutine calls Detect.
type MockDetector struct {
	mu   sync.Mutex
	pose *PoseLandmarks
	err  error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose that will be returned by Detect. Pass nil to
// simulate "no pose detected this frame".
func (m *MockDetector) SetPose(pose *PoseLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*PoseLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// presetPose builds a pose with the classifier landmarks placed at the
// given midline heights. Left/right pairs straddle the frame center; all
// other landmarks stay at zero visibility.
func presetPose(earY, shoulderY, eyeY float64) *PoseLandmarks {
	pose := &PoseLandmarks{Score: 0.95}

	set := func(idx int, x, y float64) {
		pose.Points[idx] = Point3D{X: x, Y: y, Visibility: 0.9}
	}

	set(LeftEar, 0.55, earY)
	set(RightEar, 0.45, earY)
	set(LeftShoulder, 0.60, shoulderY)
	set(RightShoulder, 0.40, shoulderY)
	set(LeftEye, 0.53, eyeY)
	set(RightEye, 0.47, eyeY)

	return pose
}

// UprightPose returns a preset pose of a subject sitting straight.
// Calibrating on it with a 480px-high frame yields a baseline of neck
// length 120px and eye height 120px.
func UprightPose() *PoseLandmarks {
	return presetPose(0.30, 0.55, 0.25)
}

// HunchedPose returns a preset pose with a compressed neck: against the
// UprightPose baseline it classifies as hunching at any sensitivity.
func HunchedPose() *PoseLandmarks {
	return presetPose(0.40, 0.55, 0.31)
}

// SunkenPose returns a preset pose with the whole upper body dropped
// down the frame: against the UprightPose baseline it classifies as
// sinking at sensitivity 8 while the neck length stays above the limit.
func SunkenPose() *PoseLandmarks {
	return presetPose(0.45, 0.68, 0.40)
}

// OccludedPose returns a pose whose shoulders fell below the visibility
// threshold, as when the subject leans out of frame.
func OccludedPose() *PoseLandmarks {
	pose := UprightPose()
	pose.Points[LeftShoulder].Visibility = 0.1
	pose.Points[RightShoulder].Visibility = 0.1
	return pose
}
