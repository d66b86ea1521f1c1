// Package viewer is the device screen panel. It does not mirror frames;
// it shows a scaled screen surface and turns clicks on it into taps in
// device pixel space.
package viewer

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/theme"
)

// Sizer reports a device's screen resolution. *devices.ADB implements it.
type Sizer interface {
	ScreenSize(ctx context.Context, id string) (w, h int, err error)
}

type sizeMsg struct {
	id   string
	w, h int
	err  error
}

// MapCell maps the centre of cell (col, row) on a cols x rows surface to a
// pixel on a w x h screen. Out-of-range cells are clamped.
func MapCell(col, row, cols, rows, w, h int) (x, y int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	col = min(max(col, 0), cols-1)
	row = min(max(row, 0), rows-1)
	x = (2*col + 1) * w / (2 * cols)
	y = (2*row + 1) * h / (2 * rows)
	return x, y
}

// Viewer is the DeviceViewer panel.
type Viewer struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sizer   Sizer
	palette theme.Palette
	log     pslog.Logger

	device  string
	width   int
	height  int
	pending bool
	err     error
}

func New(ctx context.Context, sizer Sizer, palette theme.Palette, logger pslog.Logger) *Viewer {
	ctx, cancel := context.WithCancel(ctx)
	return &Viewer{ctx: ctx, cancel: cancel, sizer: sizer, palette: palette, log: logging.OrDiscard(logger)}
}

func (v *Viewer) Init() tea.Cmd { return nil }

// Unmount abandons a screen size lookup still in flight.
func (v *Viewer) Unmount() { v.cancel() }

func (v *Viewer) Update(msg tea.Msg, props console.Props) (console.Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case console.PropsChangedMsg:
		return v, v.follow(props)
	case sizeMsg:
		if msg.id != v.device {
			return v, nil
		}
		v.pending = false
		v.err = msg.err
		if msg.err != nil {
			v.log.Warn("screen size failed", "device", msg.id, "err", msg.err)
			return v, nil
		}
		v.width, v.height = msg.w, msg.h
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || !props.HasDevice {
			return v, nil
		}
		cols, rows := surface(props)
		if msg.X < 0 || msg.Y < 0 || msg.X >= cols || msg.Y >= rows {
			return v, nil
		}
		w, h := v.width, v.height
		if w == 0 || h == 0 {
			w, h = cols, rows
		}
		x, y := MapCell(msg.X, msg.Y, cols, rows, w, h)
		return v, console.Tap(x, y)
	}
	return v, nil
}

// follow resets the screen when the active device changes and fetches the
// new resolution.
func (v *Viewer) follow(props console.Props) tea.Cmd {
	id := props.DeviceID
	if !props.HasDevice {
		id = ""
	}
	if id == v.device && (v.width > 0 || v.pending) {
		return nil
	}
	v.device = id
	v.width, v.height, v.err = 0, 0, nil
	if id == "" || v.sizer == nil {
		v.pending = false
		return nil
	}
	v.pending = true
	sizer, log, parent := v.sizer, v.log, v.ctx
	return func() tea.Msg {
		ctx := pslog.ContextWithLogger(parent, log)
		w, h, err := sizer.ScreenSize(ctx, id)
		return sizeMsg{id: id, w: w, h: h, err: err}
	}
}

// surface is the clickable screen area: everything but the info line.
func surface(props console.Props) (cols, rows int) {
	return max(props.Width, 0), max(props.Height-1, 0)
}

func (v *Viewer) View(props console.Props) string {
	if !props.HasDevice {
		return v.palette.Muted.Render("No device selected")
	}
	cols, rows := surface(props)
	if cols == 0 || rows == 0 {
		return ""
	}

	label := runewidth.Truncate(props.DeviceID, cols, "…")
	screen := lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, label,
		lipgloss.WithWhitespaceChars("·"),
		lipgloss.WithWhitespaceForeground(v.palette.Muted.GetForeground()),
	)

	var info string
	switch {
	case v.err != nil:
		info = v.palette.Error.Render(runewidth.Truncate(v.err.Error(), cols, "…"))
	case v.pending:
		info = v.palette.Muted.Render("resolving screen size…")
	case v.width > 0:
		info = v.palette.Muted.Render(fmt.Sprintf("%dx%d  click to tap", v.width, v.height))
	default:
		info = v.palette.Muted.Render("click to tap")
	}
	return strings.Join([]string{screen, info}, "\n")
}

// Resolution returns the last known screen size, zero if unknown.
func (v *Viewer) Resolution() (w, h int) { return v.width, v.height }
