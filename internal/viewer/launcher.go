// Package viewer opens media files in an external application.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmcdole/picky/internal/domain"
)

// ErrNotLocal is returned for items that have no local file yet
var ErrNotLocal = errors.New("item is not available locally")

// launchPath defines a single way to launch a viewer
type launchPath struct {
	path      string   // Command path: "feh", "imv", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only, flags for the macOS open command
}

// viewerConfig defines platform-specific launch paths for a viewer
type viewerConfig struct {
	platforms map[string][]launchPath
}

// viewers registry
var viewers = map[string]viewerConfig{
	"imv":      {platforms: map[string][]launchPath{"linux": {{path: "imv"}}}},
	"feh":      {platforms: map[string][]launchPath{"linux": {{path: "feh"}}}},
	"eog":      {platforms: map[string][]launchPath{"linux": {{path: "eog"}}}},
	"gwenview": {platforms: map[string][]launchPath{"linux": {{path: "gwenview"}}}},
	"preview": {platforms: map[string][]launchPath{
		"darwin": {{path: "open-a:Preview"}},
	}},
	"mpv": {platforms: map[string][]launchPath{
		"darwin":  {{path: "mpv"}},
		"linux":   {{path: "mpv"}},
		"windows": {{path: "mpv"}},
	}},
	"vlc": {platforms: map[string][]launchPath{
		"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
		"linux":   {{path: "vlc"}},
		"windows": {{path: "vlc"}},
	}},
	"iina": {platforms: map[string][]launchPath{
		"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}},
	}},
}

// candidateViewers defines the preferred order per platform and media kind
var candidateViewers = map[string]map[domain.MediaKind][]string{
	"darwin": {
		domain.MediaKindPhoto: {"preview"},
		domain.MediaKindVideo: {"iina", "vlc", "mpv"},
	},
	"linux": {
		domain.MediaKindPhoto: {"imv", "feh", "eog", "gwenview"},
		domain.MediaKindVideo: {"mpv", "vlc"},
	},
	"windows": {
		domain.MediaKindVideo: {"vlc", "mpv"},
	},
}

// Launcher opens files in the configured viewer, a detected one, or the
// system default handler, in that order.
type Launcher struct {
	command string
	args    []string
	logger  *slog.Logger

	goos     string
	lookPath func(string) (string, error)
	run      func(*exec.Cmd) error // Waits; used for macOS "open -a" probing
	start    func(*exec.Cmd) error // Does not wait
}

// NewLauncher creates a launcher. An empty command enables auto-detection.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run:      (*exec.Cmd).Run,
		start:    (*exec.Cmd).Start,
	}
}

// PathFromURI converts a file:// locator into a filesystem path
func PathFromURI(uri string) (string, error) {
	if uri == "" {
		return "", ErrNotLocal
	}
	if !strings.HasPrefix(uri, "file://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		// Paths with spaces or '%' are stored unescaped
		return filepath.FromSlash(strings.TrimPrefix(uri, "file://")), nil
	}
	return filepath.FromSlash(u.Path), nil
}

// Open shows the file behind uri
func (l *Launcher) Open(uri string, kind domain.MediaKind) error {
	path, err := PathFromURI(uri)
	if err != nil {
		return err
	}

	// Tier 1: User configured a specific viewer
	if l.command != "" {
		l.logger.Info("using configured viewer", "command", l.command)
		return l.launchConfigured(path)
	}

	// Tier 2: Try candidate chain
	if name, err := l.detectAndLaunch(path, kind); err == nil {
		l.logger.Info("opened with detected viewer", "viewer", name)
		return nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	l.logger.Info("no candidate viewers found, using system default")
	return l.launchDefault(path)
}

func (l *Launcher) launchConfigured(path string) error {
	args := append(append([]string{}, l.args...), path)

	// On macOS, launch GUI apps with 'open -a' if the command is not in PATH
	if l.goos == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			cmdArgs := []string{"-a", l.command}
			if len(l.args) > 0 {
				cmdArgs = append(cmdArgs, "--args")
				cmdArgs = append(cmdArgs, l.args...)
			}
			cmdArgs = append(cmdArgs, path)
			return l.start(exec.Command("open", cmdArgs...))
		}
	}

	l.logger.Info("launching viewer", "command", l.command, "args", args)
	return l.start(exec.Command(l.command, args...))
}

// detectAndLaunch tries candidate viewers in order and returns the one that started
func (l *Launcher) detectAndLaunch(path string, kind domain.MediaKind) (string, error) {
	for _, name := range candidateViewers[l.goos][kind] {
		cfg, ok := viewers[name]
		if !ok {
			continue
		}
		for _, lp := range cfg.platforms[l.goos] {
			var err error
			if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
				cmdArgs := append(append([]string{}, lp.openFlags...), "-a", app, path)
				// Run waits so a missing app is reported
				err = l.run(exec.Command("open", cmdArgs...))
			} else if _, err = l.lookPath(lp.path); err == nil {
				err = l.start(exec.Command(lp.path, path))
			}
			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "viewer", name, "path", lp.path, "error", err)
		}
	}
	return "", fmt.Errorf("no candidate viewers found")
}

func (l *Launcher) launchDefault(path string) error {
	var cmd *exec.Cmd
	switch l.goos {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	l.logger.Info("launching with system default", "os", l.goos, "path", path)
	return l.start(cmd)
}
