package console

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// panelFailedMsg reports a panic raised by a command a panel returned. gen
// is the mount generation the command was issued under.
type panelFailedMsg struct {
	id     PanelID
	gen    int
	reason string
}

// failedPanel replaces a collaborator that panicked. It keeps the slot's
// space so the layout around it is unchanged.
type failedPanel struct {
	id     PanelID
	reason string
	style  lipgloss.Style
}

func (f failedPanel) Init() tea.Cmd { return nil }

func (f failedPanel) Update(tea.Msg, Props) (Panel, tea.Cmd) { return f, nil }

func (f failedPanel) View(p Props) string {
	return f.style.Width(p.Width).Render(fmt.Sprintf("%s unavailable: %s", f.id.Title(), f.reason))
}

// fail builds the placeholder for id. The outgoing instance, when there is
// one, is unmounted first so it releases what it holds.
func (c *Controller) fail(id PanelID, stage string, r any, outgoing Panel) Panel {
	reason := fmt.Sprint(r)
	c.log.Error("panel failed", "panel", id.String(), "stage", stage, "reason", reason)
	if outgoing != nil {
		c.guardUnmount(id, outgoing)
	}
	return failedPanel{id: id, reason: reason, style: c.palette.Error}
}

func (c *Controller) guardInit(id PanelID, p Panel) (out Panel, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			out, cmd = c.fail(id, "init", r, p), nil
		}
	}()
	return p, c.guardCmd(id, c.gen[id], p.Init())
}

func (c *Controller) guardUpdate(id PanelID, p Panel, msg tea.Msg, props Props) (out Panel, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			out, cmd = c.fail(id, "update", r, p), nil
		}
	}()
	next, cmd := p.Update(msg, props)
	if next == nil {
		next = p
	}
	return next, c.guardCmd(id, c.gen[id], cmd)
}

// guardView renders p; a panic is reported through failed so the caller can
// swap in the placeholder.
func (c *Controller) guardView(id PanelID, p Panel, props Props) (out string, failed Panel) {
	defer func() {
		if r := recover(); r != nil {
			failed = c.fail(id, "view", r, p)
			out = failed.View(props)
		}
	}()
	return p.View(props), nil
}

func (c *Controller) guardUnmount(id PanelID, p Panel) {
	u, ok := p.(Unmounter)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panel unmount failed", "panel", id.String(), "reason", fmt.Sprint(r))
		}
	}()
	u.Unmount()
}

// guardCmd wraps cmd so a panic inside it becomes a panelFailedMsg stamped
// with gen. Batches are unwrapped so every child command is guarded too.
// The returned command runs off the update goroutine and must not read
// controller state.
func (c *Controller) guardCmd(id PanelID, gen int, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = panelFailedMsg{id: id, gen: gen, reason: fmt.Sprint(r)}
			}
		}()
		msg = cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			guarded := make(tea.BatchMsg, 0, len(batch))
			for _, child := range batch {
				guarded = append(guarded, c.guardCmd(id, gen, child))
			}
			return guarded
		}
		return msg
	}
}

// guardTap runs a tap consumer. A panicking consumer is logged and skipped.
func (c *Controller) guardTap(fn TapConsumer, p Point) (cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("tap consumer failed", "reason", fmt.Sprint(r))
			cmd = nil
		}
	}()
	return fn(p)
}
