// Package main provides a desktop notification hook for Postura.
// It reads an alarm event as JSON from stdin and shows a notification
// via notify-send (Linux) or osascript (macOS).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Event mirrors the payload the daemon writes to the hook's stdin.
type Event struct {
	Type         string    `json:"type"`
	Episode      string    `json:"episode"`
	At           time.Time `json:"at"`
	Sensitivity  int       `json:"sensitivity"`
	DelaySeconds int       `json:"delaySeconds"`
}

func main() {
	var ev Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode event: %v\n", err)
		os.Exit(1)
	}

	title, body := message(ev)

	if err := show(title, body); err != nil {
		fmt.Fprintf(os.Stderr, "failed to show notification: %v\n", err)
		os.Exit(1)
	}
}

func message(ev Event) (title, body string) {
	switch ev.Type {
	case "alarm_started":
		return "Postura", fmt.Sprintf("Fix your posture! Bad posture held for over %ds.", ev.DelaySeconds)
	case "alarm_stopped":
		return "Postura", "Posture corrected, alarm off."
	default:
		return "Postura", fmt.Sprintf("Event: %s", ev.Type)
	}
}

func show(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
