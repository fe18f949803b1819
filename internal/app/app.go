// Package app wires the capture, detection, classification, and alarm
// components into the Postura monitoring pipeline.
package app

import (
	"log"
	"sync"

	"github.com/ayusman/postura/internal/capture"
	"github.com/ayusman/postura/internal/detector"
	"github.com/ayusman/postura/internal/notify"
	"github.com/ayusman/postura/internal/posture"
	"github.com/ayusman/postura/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nobody is at the desk.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a pose is being tracked.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds without activity before
	// switching back to idle mode.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	CameraID      int
	WakeThreshold float64
	Session       *posture.Session
	Notifier      *notify.Notifier
}

// App owns the camera and the frame pipeline. Exactly one pipeline
// goroutine runs at a time; it is the only code that reads the camera, so
// frame N is fully processed before frame N+1 is read.
type App struct {
	config   Config
	camera   capture.Camera
	wake     *capture.WakeDetector
	detector detector.Detector
	session  *posture.Session
	notifier *notify.Notifier
	enabled  bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	doneCh   chan struct{}

	frameMu     sync.RWMutex
	latestFrame []byte
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		wake:     capture.NewWakeDetector(config.WakeThreshold),
		session:  config.Session,
		notifier: config.Notifier,
		enabled:  false,
		stopCh:   nil,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables posture monitoring. While disabled the
// pipeline keeps running but skips all frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether posture monitoring is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use. Only valid before
// Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Start begins the monitoring pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Monitoring pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources. The alarm is silenced
// before the camera is released so a bad-posture streak never outlives
// the daemon. Safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil

		done := a.doneCh
		a.doneCh = nil
		a.mu.Unlock()

		// Wait for the in-flight frame to finish
		<-done

		a.mu.Lock()
	}

	if a.session != nil {
		a.session.Shutdown()
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.wake.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.mu.Unlock()

	log.Println("Monitoring pipeline stopped")
}

// LatestFrame returns the most recent annotated frame as JPEG bytes. The
// second return is false until the pipeline has published a frame.
func (a *App) LatestFrame() ([]byte, bool) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()

	if a.latestFrame == nil {
		return nil, false
	}
	return a.latestFrame, true
}

// publishFrame stores the annotated frame for stream clients.
func (a *App) publishFrame(jpeg []byte) {
	a.frameMu.Lock()
	a.latestFrame = jpeg
	a.frameMu.Unlock()
}

// Session returns the monitoring session.
func (a *App) Session() *posture.Session {
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
