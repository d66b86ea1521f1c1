package scenarios

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/theme"
)

func writeScenario(t *testing.T, dir, name, created string, actions, shots int) {
	t.Helper()
	sd := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Join(sd, "screenshots"), 0o755); err != nil {
		t.Fatal(err)
	}
	acts := make([]string, actions)
	for i := range acts {
		acts[i] = `{"id": 1, "tool": "click"}`
	}
	doc := `{"schema_version": "1.0", "metadata": {"name": "` + name + `", "created_at": "` + created +
		`", "duration_ms": 4200, "device": {"id": "emulator-5554"}}, "actions": [` + strings.Join(acts, ",") + `]}`
	if err := os.WriteFile(filepath.Join(sd, FileName), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < shots; i++ {
		name := filepath.Join(sd, "screenshots", string(rune('a'+i))+".png")
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func names(list []Scenario) string {
	out := make([]string, len(list))
	for i, sc := range list {
		out[i] = sc.Name
	}
	return strings.Join(out, ",")
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "login", "2025-01-02T10:00:00", 3, 2)
	writeScenario(t, dir, "checkout", "2025-03-01T08:30:00.123456", 5, 0)
	writeScenario(t, dir, "onboarding", "2024-12-31T23:59:59", 0, 0)

	// skipped: no document, malformed document, plain file
	os.MkdirAll(filepath.Join(dir, "empty"), 0o755)
	os.MkdirAll(filepath.Join(dir, "broken"), 0o755)
	os.WriteFile(filepath.Join(dir, "broken", FileName), []byte("{not json"), 0o644)
	os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0o644)

	list, err := Store{Dir: dir}.List()
	if err != nil {
		t.Fatal(err)
	}
	if got := names(list); got != "checkout,login,onboarding" {
		t.Fatalf("order = %s", got)
	}
	login := list[1]
	if login.ActionCount != 3 || login.ScreenshotCount != 2 || login.DurationMS != 4200 {
		t.Fatalf("login = %+v", login)
	}
	if login.Description != "No description" {
		t.Fatalf("description = %q", login.Description)
	}
	if login.Device["id"] != "emulator-5554" {
		t.Fatalf("device = %v", login.Device)
	}
	if login.Path != filepath.Join(dir, "login", FileName) {
		t.Fatalf("path = %q", login.Path)
	}
	if login.Created().IsZero() || list[0].Created().IsZero() {
		t.Fatalf("created_at not parsed")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	list, err := Store{Dir: filepath.Join(t.TempDir(), "nope")}.List()
	if err != nil || len(list) != 0 {
		t.Fatalf("List() = %v, %v", list, err)
	}
}

func TestRank(t *testing.T) {
	list := []Scenario{
		{Name: "checkout flow"},
		{Name: "login", Description: "sign in with test account"},
		{Name: "logout"},
		{Name: "settings"},
	}
	if got := names(Rank("", list)); got != "checkout flow,login,logout,settings" {
		t.Fatalf("empty query reordered: %s", got)
	}
	if got := names(Rank("LOG", list)); !strings.HasPrefix(got, "login,logout,") {
		t.Fatalf("substring hits not first: %s", got)
	}
	if got := names(Rank("test", list)); !strings.HasPrefix(got, "login,") {
		t.Fatalf("description hit not first: %s", got)
	}
	// no substring hit: closest name wins
	if got := Rank("setings", list); got[0].Name != "settings" || len(got) != len(list) {
		t.Fatalf("fuzzy rank = %s", names(got))
	}
}

func TestWatcherSignalsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeScenario(t, dir, "new", "2025-01-01T00:00:00", 1, 0)
	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatalf("no change signalled")
	}

	w.Close()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("changes channel not closed after Close")
		}
	}
}

var props = console.Props{Width: 60, Height: 8, Focused: true}

func newPanel(dir string) *Panel {
	return NewPanel(Store{Dir: dir}, theme.Fixed(config.Default().Theme, true), nil)
}

// mount runs Init and applies the initial load.
func mount(t *testing.T, p *Panel) {
	t.Helper()
	p.Init()
	p.Update(p.load()(), props)
}

func TestPanelLoadsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "login", "2025-01-02T10:00:00", 3, 0)
	writeScenario(t, dir, "checkout", "2025-03-01T08:30:00", 5, 0)
	p := newPanel(dir)
	defer p.Unmount()
	mount(t, p)

	out := p.View(props)
	if !strings.Contains(out, "checkout · 5 actions") || !strings.Contains(out, "login · 3 actions") {
		t.Fatalf("list not rendered:\n%s", out)
	}

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}, props)
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("log")}, props)
	p.Update(tea.KeyMsg{Type: tea.KeyEnter}, props)
	if got := names(p.Shown()); got != "login,checkout" {
		t.Fatalf("filtered order = %s", got)
	}
	p.Update(tea.KeyMsg{Type: tea.KeyEsc}, props)
	if got := names(p.Shown()); got != "checkout,login" {
		t.Fatalf("esc did not clear filter: %s", got)
	}
}

func TestPanelIgnoresOtherMounts(t *testing.T) {
	dir := t.TempDir()
	old := newPanel(dir)
	fresh := newPanel(dir)
	if old.token == fresh.token {
		t.Fatalf("two mounts share a token")
	}
	defer fresh.Unmount()
	mount(t, fresh)

	fresh.Update(loadedMsg{token: old.token, scenarios: []Scenario{{Name: "ghost"}}}, props)
	if len(fresh.Shown()) != 0 {
		t.Fatalf("stale load applied: %s", names(fresh.Shown()))
	}
	if _, cmd := fresh.Update(changedMsg{token: old.token}, props); cmd != nil {
		t.Fatalf("stale change triggered a reload")
	}
}

func TestPanelUnmountStopsWatcher(t *testing.T) {
	p := newPanel(t.TempDir())
	p.Init()
	if p.watcher == nil {
		t.Fatalf("watcher not started on mount")
	}
	wait := p.wait()
	p.Unmount()

	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()
	select {
	case msg := <-done:
		if msg != nil {
			t.Fatalf("wait after unmount returned %T", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("pending wait not released by Unmount")
	}
	if _, cmd := p.Update(changedMsg{token: p.token}, props); cmd != nil {
		t.Fatalf("unmounted panel keeps reloading")
	}
}

func TestPanelRendersErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	os.WriteFile(file, []byte("x"), 0o644)

	// a regular file as the directory: watcher and listing both fail
	p := newPanel(file)
	mount(t, p)
	if out := p.View(props); !strings.Contains(out, "read scenarios dir") {
		t.Fatalf("error not rendered:\n%s", out)
	}
}
