package adapter

import (
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
)

// Launcher opens listing URLs in a browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments for the browser
	logger  *slog.Logger

	// start runs a command without waiting for it
	start func(name string, args ...string) error
}

// NewLauncher creates a Launcher. An empty command uses the system default
// handler (open, xdg-open or start).
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		logger:  logger,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Open launches rawURL. Only http and https URLs are accepted so a crafted
// listing cannot make us execute a local file.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) url", rawURL)
	}

	name, args := l.commandFor(runtime.GOOS, u.String())
	l.logger.Info("opening listing", "command", name, "url", u.String())
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to launch %s: %w", name, err)
	}
	return nil
}

// commandFor returns the command line for goos
func (l *Launcher) commandFor(goos, target string) (string, []string) {
	if l.command != "" {
		// URL goes at the end
		args := append(append([]string{}, l.args...), target)
		return l.command, args
	}

	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "cmd", []string{"/c", "start", "", target}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{target}
	}
}
