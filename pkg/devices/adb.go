// Package devices enumerates Android devices through adb and provides the
// device selector panel.
package devices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrADBNotFound = errors.New("adb not found: set ANDROID_HOME or install Android SDK Platform Tools")
	ErrADBTimeout  = errors.New("adb command timed out")
	ErrNoSize      = errors.New("wm size output had no dimensions")
)

// DefaultTimeout bounds each adb invocation.
const DefaultTimeout = 5 * time.Second

// Device is one line of `adb devices -l`.
type Device struct {
	ID      string
	Status  string
	Model   string
	Product string
}

// String is the tab-separated form printed by the devices command.
func (d Device) String() string {
	return fmt.Sprintf("%s\t%s\t%s\t%s", d.ID, d.Status, d.Model, d.Product)
}

// Label is the selector line for d.
func (d Device) Label() string {
	if d.Model == "Unknown" {
		return d.ID
	}
	return fmt.Sprintf("%s (%s)", d.ID, strings.ReplaceAll(d.Model, "_", " "))
}

var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// ParseDevices parses `adb devices -l`. The header line, blank lines and
// offline devices are skipped. Missing model or product become "Unknown".
func ParseDevices(output string) []Device {
	var devices []Device
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(ansiEscapeRegex.ReplaceAllString(line, ""))
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 || parts[1] == "offline" {
			continue
		}
		d := Device{ID: parts[0], Status: parts[1], Model: "Unknown", Product: "Unknown"}
		for _, part := range parts[2:] {
			switch {
			case strings.HasPrefix(part, "model:"):
				d.Model = strings.TrimPrefix(part, "model:")
			case strings.HasPrefix(part, "product:"):
				d.Product = strings.TrimPrefix(part, "product:")
			}
		}
		devices = append(devices, d)
	}
	return devices
}

var sizeRegex = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)

// ParseScreenSize parses `adb shell wm size`. An override beats the
// physical size.
func ParseScreenSize(output string) (w, h int, err error) {
	found := false
	for _, m := range sizeRegex.FindAllStringSubmatch(output, -1) {
		mw, _ := strconv.Atoi(m[2])
		mh, _ := strconv.Atoi(m[3])
		if m[1] == "Override" || !found {
			w, h = mw, mh
		}
		if m[1] == "Override" {
			return w, h, nil
		}
		found = true
	}
	if !found {
		return 0, 0, ErrNoSize
	}
	return w, h, nil
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}

// ADB runs one-shot adb commands.
type ADB struct {
	Path    string
	Timeout time.Duration

	run runFunc
}

// NewADB resolves the adb binary from configPath and returns a client.
func NewADB(configPath string, timeout time.Duration) (*ADB, error) {
	path, err := ResolveADB(configPath)
	if err != nil {
		return nil, err
	}
	return &ADB{Path: path, Timeout: timeout}, nil
}

// ResolveADB picks the adb binary: the configured path, then
// $ANDROID_HOME/platform-tools/adb, then adb on PATH.
func ResolveADB(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrADBNotFound, configPath)
		}
		return configPath, nil
	}
	if home := os.Getenv("ANDROID_HOME"); home != "" {
		p := filepath.Join(home, "platform-tools", "adb")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	p, err := exec.LookPath("adb")
	if err != nil {
		return "", ErrADBNotFound
	}
	return p, nil
}

func (a *ADB) output(ctx context.Context, args ...string) ([]byte, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := a.run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, a.Path, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w (%s)", ErrADBTimeout, timeout)
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrADBNotFound
		}
		return nil, fmt.Errorf("adb %s failed: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// List returns the online devices.
func (a *ADB) List(ctx context.Context) ([]Device, error) {
	out, err := a.output(ctx, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return ParseDevices(string(out)), nil
}

// ScreenSize returns the device resolution in pixels.
func (a *ADB) ScreenSize(ctx context.Context, id string) (w, h int, err error) {
	out, err := a.output(ctx, "-s", id, "shell", "wm", "size")
	if err != nil {
		return 0, 0, err
	}
	return ParseScreenSize(string(out))
}
