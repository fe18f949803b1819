// Package notify dispatches alarm events to an external hook command.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// Event types sent to the hook.
const (
	EventAlarmStarted = "alarm_started"
	EventAlarmStopped = "alarm_stopped"
)

// Event is the JSON payload written to the hook's stdin.
type Event struct {
	Type         string    `json:"type"`
	Episode      string    `json:"episode"`
	At           time.Time `json:"at"`
	Sensitivity  int       `json:"sensitivity"`
	DelaySeconds int       `json:"delaySeconds"`
}

// Notifier runs a hook command for each alarm event, feeding the event as
// JSON on stdin. A nil Notifier is valid and dispatches nothing.
type Notifier struct {
	argv    []string
	timeout time.Duration
}

// New creates a Notifier for the given hook argv. It returns nil when argv
// is empty, which disables notifications.
func New(argv []string, timeout time.Duration) *Notifier {
	if len(argv) == 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		argv:    argv,
		timeout: timeout,
	}
}

// Dispatch runs the hook with the event on stdin. It blocks until the hook
// exits or the timeout fires.
func (n *Notifier) Dispatch(ev Event) error {
	if n == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.argv[0], n.argv[1:]...)

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("notify hook timeout after %s", n.timeout)
	}

	if err != nil {
		if stderrStr := stderr.String(); stderrStr != "" {
			return fmt.Errorf("notify hook failed: %w, stderr: %s", err, stderrStr)
		}
		return fmt.Errorf("notify hook failed: %w", err)
	}

	return nil
}
