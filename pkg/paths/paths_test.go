package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestDirs(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("CONSOLE_CONFIG_DIR", "")
	t.Setenv("CONSOLE_STATE_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", tmp)
	ResetForTest()
	return tmp
}

func TestDirEnvOverrides(t *testing.T) {
	tests := []struct {
		name string
		env  string
		get  func() string
	}{
		{name: "config", env: "CONSOLE_CONFIG_DIR", get: ConfigDir},
		{name: "state", env: "CONSOLE_STATE_DIR", get: StateDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := setupTestDirs(t)
			override := filepath.Join(tmp, "custom-"+tt.name)
			t.Setenv(tt.env, override)
			ResetForTest()

			if got := tt.get(); got != override {
				t.Fatalf("%s dir = %q, want %q", tt.name, got, override)
			}
		})
	}
}

func TestXDGBase(t *testing.T) {
	tmp := setupTestDirs(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg-config"))
	t.Setenv("XDG_STATE_HOME", "relative/state")
	ResetForTest()

	if got, want := ConfigDir(), filepath.Join(tmp, "xdg-config", "device-console"); got != want {
		t.Fatalf("config dir = %q, want %q", got, want)
	}
	// relative XDG values are ignored
	if got, want := StateDir(), filepath.Join(tmp, ".local", "state", "device-console"); got != want {
		t.Fatalf("state dir = %q, want %q", got, want)
	}

	t.Setenv("CONSOLE_CONFIG_DIR", filepath.Join(tmp, "explicit"))
	ResetForTest()
	if got := ConfigDir(); got != filepath.Join(tmp, "explicit") {
		t.Fatalf("override lost to XDG: %q", got)
	}
}

func TestDefaultLayout(t *testing.T) {
	tmp := setupTestDirs(t)

	checks := map[string]string{
		ConfigPath():              filepath.Join(tmp, ".config", "device-console", "config.yaml"),
		StatePath("console.log"):  filepath.Join(tmp, ".local", "state", "device-console", "console.log"),
		ScenariosDir():            filepath.Join(tmp, ".local", "state", "device-console", "scenarios"),
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestEnsureStateDirCreates(t *testing.T) {
	tmp := setupTestDirs(t)

	dir, err := EnsureStateDir()
	if err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if !filepath.IsAbs(dir) || !hasPrefix(dir, tmp) {
		t.Fatalf("dir %q not under %q", dir, tmp)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory %q to exist", dir)
	}
}

func hasPrefix(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 2 || rel[:2] != "..")
}
