package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/postura/internal/app"
	"github.com/ayusman/postura/internal/config"
	"github.com/ayusman/postura/internal/notify"
	"github.com/ayusman/postura/internal/posture"
	"github.com/ayusman/postura/internal/server"
	"github.com/ayusman/postura/internal/store"
	"github.com/ayusman/postura/internal/tone"
	"github.com/ayusman/postura/internal/tray"
)

func main() {
	fmt.Println("Postura - Sitting Posture Monitor")

	cfg, err := config.Load(findConfigFile())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".postura")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "postura.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Settings persisted through the API override the config file.
	sensitivity := cfg.Sensitivity
	if v, err := st.GetSettingInt(store.KeySensitivity); err == nil {
		sensitivity = v
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to read stored sensitivity: %v", err)
	}

	alarmDelay := time.Duration(cfg.AlarmDelaySeconds) * time.Second
	if v, err := st.GetSettingInt(store.KeyAlarmDelay); err == nil {
		alarmDelay = time.Duration(v) * time.Second
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to read stored alarm delay: %v", err)
	}

	// The alarm tone loops while posture stays bad.
	emitter := tone.NewCommandEmitter(cfg.Tone.Command)
	looper := tone.NewLooper(emitter, time.Duration(cfg.Tone.IntervalMs)*time.Millisecond)
	defer looper.Stop()

	session, err := posture.NewSession(posture.Config{
		Sensitivity: sensitivity,
		AlarmDelay:  alarmDelay,
		Sounder:     looper,
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	notifier := notify.New(cfg.Notify.Command, time.Duration(cfg.Notify.TimeoutMs)*time.Millisecond)

	a := app.New(app.Config{
		Store:         st,
		CameraID:      cfg.CameraID,
		WakeThreshold: cfg.WakeThreshold,
		Session:       session,
		Notifier:      notifier,
	})

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	a.SetEnabled(true)

	// Find web directory
	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Session:   session,
		Frames:    a,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	tr := tray.New()
	tr.OnToggle(a.SetEnabled)
	tr.OnCalibrate(session.RequestCalibration)
	tr.OnSettings(func() {
		if err := openBrowser("http://" + cfg.ListenAddr + "/"); err != nil {
			log.Printf("Failed to open settings page: %v", err)
		}
	})
	tr.OnQuit(a.Stop)

	// Keep the tray status line current.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			tr.SetStatus(statusLine(session.Status()))
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Println("Shutting down")
		a.Stop()
		tr.Quit()
	}()

	// Blocks until Quit
	tr.Run()
}

// statusLine renders a session snapshot for the tray menu.
func statusLine(st posture.Status) string {
	switch {
	case !st.Calibrated:
		return "Not calibrated"
	case st.AlarmState == posture.StateAlarming:
		return "FIX POSTURE!"
	case st.Verdict != nil && st.Verdict.Bad:
		return "Bad posture"
	default:
		return "Posture OK"
	}
}

// openBrowser opens url in the default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findConfigFile prefers ~/.postura/config.yaml and falls back to
// ./config.yaml. Either may be missing; the loader then uses defaults.
func findConfigFile() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(homeDir, ".postura", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "config.yaml"
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.postura/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".postura", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
