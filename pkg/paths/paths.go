// Package paths locates the files device-console reads and writes.
//
//	config.yaml  CONSOLE_CONFIG_DIR, else $XDG_CONFIG_HOME/device-console, else ~/.config/device-console
//	console.log  CONSOLE_STATE_DIR, else $XDG_STATE_HOME/device-console, else ~/.local/state/device-console
//	scenarios/   under the state dir unless scenarios.dir is set in config.yaml
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const appName = "device-console"

// lazyDir resolves a directory once per process.
type lazyDir struct {
	override string // env var naming the directory itself
	xdg      string // env var naming the XDG base
	fallback []string

	once sync.Once
	path string
}

func (d *lazyDir) get() string {
	d.once.Do(func() { d.path = d.resolve() })
	return d.path
}

func (d *lazyDir) resolve() string {
	if v := os.Getenv(d.override); v != "" {
		return v
	}
	if base := os.Getenv(d.xdg); base != "" && filepath.IsAbs(base) {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, d.fallback...)...)
}

var (
	configDir = &lazyDir{override: "CONSOLE_CONFIG_DIR", xdg: "XDG_CONFIG_HOME", fallback: []string{".config", appName}}
	stateDir  = &lazyDir{override: "CONSOLE_STATE_DIR", xdg: "XDG_STATE_HOME", fallback: []string{".local", "state", appName}}
)

func ConfigDir() string { return configDir.get() }

// StateDir holds the log file and, by default, recorded scenarios.
func StateDir() string { return stateDir.get() }

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StatePath joins name onto StateDir.
func StatePath(name string) string {
	return filepath.Join(StateDir(), name)
}

func ScenariosDir() string {
	return filepath.Join(StateDir(), "scenarios")
}

// EnsureStateDir creates StateDir when missing.
func EnsureStateDir() (string, error) {
	dir := StateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return dir, nil
}

// ResetForTest forgets resolved directories so the next call reads the
// environment again.
func ResetForTest() {
	for _, d := range []*lazyDir{configDir, stateDir} {
		d.once = sync.Once{}
		d.path = ""
	}
}
