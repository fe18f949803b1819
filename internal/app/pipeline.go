package app

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/postura/internal/capture"
	"github.com/ayusman/postura/internal/detector"
	"github.com/ayusman/postura/internal/hud"
	"github.com/ayusman/postura/internal/notify"
	"github.com/ayusman/postura/internal/posture"
)

// runPipeline is the main monitoring loop. It is the single consumer of
// the camera: each frame is read, classified, and applied to the alarm
// state before the next frame is read, so verdicts are never reordered.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS=5), running only the cheap wake check
// 2. On activity, switch to active mode (ActiveFPS=15) and run pose detection
// 3. Convert pose landmarks to classifier keypoints
// 4. Feed the session: calibration, classification, alarm update
// 5. Draw the HUD and publish the annotated frame for stream clients
// 6. After 2s without activity or pose, drop back to idle mode
func (a *App) runPipeline(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	activeMode := false
	lastActivity := time.Now()

	// Alarm transitions observed so far, for the notification hook.
	prevAlarm := posture.StateIdle
	episode := ""

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if monitoring is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrSourceExhausted) || errors.Is(err, capture.ErrCameraNotOpen) {
					log.Printf("Frame source gone, shutting down pipeline: %v", err)
					go a.Stop()
					return
				}
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: cheap wake check
			activity, _ := a.wake.Detect(frame)

			if activity {
				lastActivity = time.Now()

				if !activeMode {
					activeMode = true
					a.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			}

			if !activeMode {
				frame.Close()
				continue
			}

			// Step 2: pose detection
			pose, err := a.Detector().Detect(frame)
			if err != nil {
				log.Printf("Error detecting pose: %v", err)
				frame.Close()
				continue
			}

			if pose != nil {
				lastActivity = time.Now()
				a.processPose(frame, pose)

				// Step 5: notify on alarm transitions
				state := a.session.AlarmState()
				if state == posture.StateAlarming && prevAlarm != posture.StateAlarming {
					episode = a.session.Status().Episode
					a.dispatchAlarmEvent(notify.EventAlarmStarted, episode)
				} else if state != posture.StateAlarming && prevAlarm == posture.StateAlarming {
					a.dispatchAlarmEvent(notify.EventAlarmStopped, episode)
					episode = ""
				}
				prevAlarm = state
			}

			a.publishJPEG(frame)
			frame.Close()

			// Step 6: drop back to idle when neither motion nor a pose
			// has been seen for a while
			if time.Since(lastActivity) > time.Duration(IdleTimeoutMs)*time.Millisecond {
				activeMode = false
				a.Camera().SetFPS(IdleFPS)
				frameInterval = time.Second / time.Duration(IdleFPS)
				ticker.Reset(frameInterval)
				a.wake.Reset()
				log.Println("Switched to idle mode")
			}
		}
	}
}

// processPose converts the pose to classifier keypoints, feeds the
// session, and draws the HUD onto the frame. An occluded pose skips the
// frame entirely: it neither feeds nor resets the alarm.
func (a *App) processPose(frame *gocv.Mat, pose *detector.PoseLandmarks) {
	ks, err := detector.Keypoints(pose, frame.Cols(), frame.Rows())
	if err != nil {
		return
	}

	verdict, err := a.session.OnFrame(ks)
	if err != nil {
		if errors.Is(err, posture.ErrUncalibrated) {
			hud.DrawCalibrationPrompt(frame)
		} else {
			log.Printf("Error classifying frame: %v", err)
		}
		return
	}

	hud.Draw(frame, &verdict)
}

// dispatchAlarmEvent sends an alarm event to the notify hook without
// blocking the pipeline.
func (a *App) dispatchAlarmEvent(eventType, episode string) {
	if a.notifier == nil {
		return
	}

	st := a.session.Status()
	ev := notify.Event{
		Type:         eventType,
		Episode:      episode,
		At:           time.Now(),
		Sensitivity:  st.Sensitivity,
		DelaySeconds: int(st.AlarmDelaySeconds),
	}

	go func() {
		if err := a.notifier.Dispatch(ev); err != nil {
			log.Printf("Notify hook error: %v", err)
		}
	}()
}

// publishJPEG encodes the annotated frame and stores it for /api/stream
// clients.
func (a *App) publishJPEG(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return
	}

	// GetBytes is only valid until the buffer is closed
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	a.publishFrame(data)
}
