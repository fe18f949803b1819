package tone

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// CommandEmitter emits a pulse by running an external command, e.g.
// afplay on macOS or paplay on Linux. Each pulse is one short invocation.
type CommandEmitter struct {
	argv    []string
	timeout time.Duration
}

// NewCommandEmitter creates an emitter for the given command line. An
// empty argv picks a platform default.
func NewCommandEmitter(argv []string) *CommandEmitter {
	if len(argv) == 0 {
		argv = defaultCommand()
	}
	return &CommandEmitter{
		argv:    argv,
		timeout: 3 * time.Second,
	}
}

func defaultCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"afplay", "/System/Library/Sounds/Ping.aiff"}
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command", "[console]::beep(1000,200)"}
	default:
		return []string{"paplay", "/usr/share/sounds/freedesktop/stereo/bell.oga"}
	}
}

// Pulse runs the tone command once, bounded by a timeout so a wedged
// audio stack cannot pile up subprocesses.
func (e *CommandEmitter) Pulse() error {
	if len(e.argv) == 0 {
		return errors.New("no tone command configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tone command %q: %w", e.argv[0], err)
	}
	return nil
}
