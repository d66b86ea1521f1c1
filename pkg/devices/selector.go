package devices

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/theme"
)

// Lister enumerates devices. *ADB implements it.
type Lister interface {
	List(ctx context.Context) ([]Device, error)
}

type listedMsg struct {
	devices []Device
	err     error
}

// Selector is the device list panel. Picking a device emits
// console.SelectDevice; the selector never writes controller state itself.
type Selector struct {
	ctx     context.Context
	cancel  context.CancelFunc
	lister  Lister
	palette theme.Palette
	log     pslog.Logger

	devices []Device
	cursor  int
	loading bool
	err     error
}

// NewSelector returns a selector backed by l. Listing runs under ctx until
// Unmount. A nil l renders ErrADBNotFound.
func NewSelector(ctx context.Context, l Lister, palette theme.Palette, logger pslog.Logger) *Selector {
	ctx, cancel := context.WithCancel(ctx)
	return &Selector{ctx: ctx, cancel: cancel, lister: l, palette: palette, log: logging.OrDiscard(logger)}
}

func (s *Selector) Init() tea.Cmd {
	return s.refresh()
}

func (s *Selector) Unmount() {
	s.cancel()
}

func (s *Selector) refresh() tea.Cmd {
	if s.lister == nil {
		s.err = ErrADBNotFound
		return nil
	}
	s.loading = true
	lister, log, parent := s.lister, s.log, s.ctx
	return func() tea.Msg {
		ctx := pslog.ContextWithLogger(parent, log)
		devices, err := lister.List(ctx)
		return listedMsg{devices: devices, err: err}
	}
}

func (s *Selector) Update(msg tea.Msg, props console.Props) (console.Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		s.loading = false
		s.err = msg.err
		if msg.err != nil {
			s.log.Warn("device list failed", "err", msg.err)
			return s, nil
		}
		s.devices = msg.devices
		s.cursor = min(s.cursor, max(len(s.devices)-1, 0))
		s.log.Debug("devices listed", "count", len(s.devices))
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if s.cursor < len(s.devices)-1 {
				s.cursor++
			}
		case "k", "up":
			if s.cursor > 0 {
				s.cursor--
			}
		case "r":
			return s, s.refresh()
		case "enter":
			return s, s.choose(s.cursor)
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if msg.Y >= 0 && msg.Y < len(s.devices) {
				s.cursor = msg.Y
				return s, s.choose(msg.Y)
			}
		}
	}
	return s, nil
}

func (s *Selector) choose(i int) tea.Cmd {
	if i < 0 || i >= len(s.devices) {
		return nil
	}
	return console.SelectDevice(s.devices[i].ID)
}

func (s *Selector) View(props console.Props) string {
	switch {
	case s.err != nil:
		return s.palette.Error.Render(runewidth.Truncate(s.err.Error(), max(props.Width, 1), "…")) +
			"\n" + s.palette.Muted.Render("r to retry")
	case s.loading && len(s.devices) == 0:
		return s.palette.Muted.Render("scanning for devices…")
	case len(s.devices) == 0:
		return s.palette.Muted.Render("no devices (r to refresh)")
	}

	lines := make([]string, 0, len(s.devices))
	for i, d := range s.devices {
		marker := "  "
		if props.HasDevice && d.ID == props.DeviceID {
			marker = "● "
		}
		line := runewidth.Truncate(marker+d.Label(), max(props.Width, 1), "…")
		if i == s.cursor && props.Focused {
			line = s.palette.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Devices returns the last listed devices.
func (s *Selector) Devices() []Device { return s.devices }
