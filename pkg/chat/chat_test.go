package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/theme"
)

type fakeResponder struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeResponder) Respond(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply, f.err
}

var props = console.Props{DeviceID: "emulator-5554", HasDevice: true, Width: 60, Height: 12, Focused: true}

func newPanel(r Responder) *Panel {
	return New(context.Background(), r, theme.Fixed(config.Default().Theme, true), nil)
}

// send types text, presses enter and returns the reply message.
func send(t *testing.T, p *Panel, text string) tea.Msg {
	t.Helper()
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}, props)
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, props)
	if cmd == nil {
		t.Fatalf("enter produced no command")
	}
	return findReply(t, cmd)
}

func findReply(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if m, ok := c().(replyMsg); ok {
				return m
			}
		}
		t.Fatalf("no reply in batch")
	}
	if _, ok := msg.(replyMsg); !ok {
		t.Fatalf("got %T, want replyMsg", msg)
	}
	return msg
}

func TestUnmountCancelsRequest(t *testing.T) {
	p := newPanel(&fakeResponder{reply: "done"})
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("open settings")}, props)
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, props)
	p.Unmount()

	msg := findReply(t, cmd).(replyMsg)
	if !errors.Is(msg.err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", msg.err)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("open settings", "emulator-5554", true)
	for _, want := range []string{"**Device ID**: emulator-5554", "device_id", "**Device Actions**", "Never say an action was performed", "\n\n---\n\n**User Request**:\nopen settings"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "open settings") {
		t.Fatalf("user request should end the prompt")
	}

	bare := BuildPrompt("hello", "", false)
	if strings.Contains(bare, "Device ID") {
		t.Fatalf("prompt without device mentions one:\n%s", bare)
	}
}

func TestPanelRoundTrip(t *testing.T) {
	r := &fakeResponder{reply: "Opened Settings."}
	p := newPanel(r)

	reply := send(t, p, "open settings")
	if len(r.prompts) != 1 || !strings.Contains(r.prompts[0], "**Device ID**: emulator-5554") {
		t.Fatalf("responder prompts = %q", r.prompts)
	}
	if out := p.View(props); !strings.Contains(out, "thinking") {
		t.Fatalf("in-flight indicator missing:\n%s", out)
	}

	p.Update(reply, props)
	got := p.Transcript()
	if len(got) != 2 || got[0] != "open settings" || got[1] != "Opened Settings." {
		t.Fatalf("transcript = %q", got)
	}
	if out := p.View(props); !strings.Contains(out, "Opened Settings.") {
		t.Fatalf("reply not rendered:\n%s", out)
	}
}

func TestPanelShowsResponderErrors(t *testing.T) {
	p := newPanel(&fakeResponder{err: errors.New("rate limited")})
	p.Update(send(t, p, "hi"), props)
	if out := p.View(props); !strings.Contains(out, "error: rate limited") {
		t.Fatalf("error not in transcript:\n%s", out)
	}
}

func TestPanelWithoutResponder(t *testing.T) {
	p := newPanel(nil)
	msg := send(t, p, "hi").(replyMsg)
	if !errors.Is(msg.err, ErrNoResponder) {
		t.Fatalf("err = %v", msg.err)
	}
}

func TestPanelIgnoresEmptyAndConcurrentSubmits(t *testing.T) {
	p := newPanel(&fakeResponder{reply: "ok"})
	if _, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, props); cmd != nil {
		t.Fatalf("empty input submitted")
	}

	first := send(t, p, "one")
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("two")}, props)
	if _, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, props); cmd != nil {
		t.Fatalf("second request sent while one is in flight")
	}

	stale := replyMsg{id: "not-the-pending-one", text: "stale"}
	p.Update(stale, props)
	p.Update(first, props)
	if got := p.Transcript(); len(got) != 2 || got[1] != "ok" {
		t.Fatalf("transcript = %q", got)
	}
}

func TestPanelNotesDeviceChanges(t *testing.T) {
	p := newPanel(nil)
	p.Update(console.PropsChangedMsg{}, props)
	p.Update(console.PropsChangedMsg{}, props)
	got := p.Transcript()
	if len(got) != 1 || got[0] != "device emulator-5554 selected" {
		t.Fatalf("transcript = %q", got)
	}
}

func TestNewGollmResponderNeedsKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewGollmResponder(config.Chat{Provider: "anthropic"})
	if !errors.Is(err, ErrNoResponder) {
		t.Fatalf("err = %v, want ErrNoResponder", err)
	}
}
