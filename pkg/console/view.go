package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/b/device-console/pkg/perf"
)

const (
	appTitle      = "Device Console"
	headerRows    = 1
	stripRows     = 1
	selectorShare = 30 // percent of the left column
	minSelector   = 4
)

// frame is the geometry of one render.
type frame struct {
	width, height int

	header   Rect
	strip    Rect
	hasStrip bool
	panels   map[PanelID]Rect
}

// computeFrame places every mounted panel. The left column stacks the
// selector over the viewer; the right column is split by LayoutFor.
func computeFrame(width, height, viewerPct int, s State) frame {
	fr := frame{
		width:  width,
		height: height,
		header: Rect{X: 0, Y: 0, W: width, H: min(headerRows, max(height, 0))},
		panels: make(map[PanelID]Rect, 5),
	}
	_, fr.hasStrip = s.StatusStrip()

	bodyY := fr.header.H
	bodyH := height - fr.header.H
	if fr.hasStrip {
		bodyH -= stripRows
	}
	bodyH = max(bodyH, 0)
	if fr.hasStrip {
		fr.strip = Rect{X: 0, Y: bodyY + bodyH, W: width, H: stripRows}
	}

	leftW := width * viewerPct / 100
	rightW := width - leftW

	selH := min(max(bodyH*selectorShare/100, minSelector), bodyH)
	fr.panels[PanelSelector] = Rect{X: 0, Y: bodyY, W: leftW, H: selH}
	fr.panels[PanelViewer] = Rect{X: 0, Y: bodyY + selH, W: leftW, H: bodyH - selH}

	chatH, scenH, histH := LayoutFor(s).Rows(bodyH)
	y := bodyY
	fr.panels[PanelChat] = Rect{X: leftW, Y: y, W: rightW, H: chatH}
	y += chatH
	if s.ScenariosVisible {
		fr.panels[PanelScenarios] = Rect{X: leftW, Y: y, W: rightW, H: scenH}
		y += scenH
	}
	if s.HistoryVisible {
		fr.panels[PanelHistory] = Rect{X: leftW, Y: y, W: rightW, H: histH}
	}
	return fr
}

func (c *Controller) frame() frame {
	return computeFrame(c.width, c.height, c.viewerPct, c.State())
}

// header is the rendered top row plus the hit boxes of its two buttons.
type header struct {
	line      string
	scenarios Rect
	history   Rect
}

func (c *Controller) renderHeader(s State, width int) header {
	title := c.palette.Title.Render(appTitle)

	scenStyle, histStyle := c.palette.Button, c.palette.Button
	if s.ScenariosVisible {
		scenStyle = c.palette.ButtonOn
	}
	if s.HistoryVisible {
		histStyle = c.palette.ButtonOn
	}
	scen := scenStyle.Render(s.ScenariosLabel())
	hist := histStyle.Render(s.HistoryLabel())

	x := lipgloss.Width(title) + 2
	h := header{scenarios: Rect{X: x, Y: 0, W: lipgloss.Width(scen), H: 1}}
	x += h.scenarios.W + 1
	h.history = Rect{X: x, Y: 0, W: lipgloss.Width(hist), H: 1}
	x += h.history.W + 2

	device := "no device selected"
	if s.HasDevice {
		device = "device " + s.ActiveDevice
	}
	if room := width - x; room > 0 {
		device = runewidth.Truncate(device, room, "…")
	} else {
		device = ""
	}

	h.line = lipgloss.NewStyle().MaxWidth(max(width, 0)).Render(
		title + "  " + scen + " " + hist + "  " + c.palette.Muted.Render(device),
	)
	return h
}

// regions lists hit boxes for the current frame, buttons first.
func (c *Controller) regions(fr frame) []ClickableRegion {
	hd := c.renderHeader(c.State(), fr.width)
	out := []ClickableRegion{
		{Rect: hd.scenarios, Action: ActionToggleScenarios},
		{Rect: hd.history, Action: ActionToggleHistory},
	}
	for _, id := range c.Mounted() {
		out = append(out, ClickableRegion{Rect: fr.panels[id], Action: ActionPanel, Target: id})
	}
	return out
}

// View implements tea.Model.
func (c *Controller) View() string {
	defer perf.Start("console.view").Stop()
	if c.width <= 0 || c.height <= 0 {
		return ""
	}

	s := c.State()
	fr := c.frame()

	left := lipgloss.JoinVertical(lipgloss.Left,
		c.renderPanel(PanelSelector, fr),
		c.renderPanel(PanelViewer, fr),
	)
	right := []string{c.renderPanel(PanelChat, fr)}
	if s.ScenariosVisible {
		right = append(right, c.renderPanel(PanelScenarios, fr))
	}
	if s.HistoryVisible {
		right = append(right, c.renderPanel(PanelHistory, fr))
	}

	rows := []string{
		c.renderHeader(s, fr.width).line,
		lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.JoinVertical(lipgloss.Left, right...)),
	}
	if text, ok := s.StatusStrip(); ok {
		rows = append(rows, c.palette.StatusStrip.Width(fr.strip.W).MaxWidth(fr.strip.W).Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (c *Controller) renderPanel(id PanelID, fr frame) string {
	r := fr.panels[id]
	if r.W < 3 || r.H < 3 {
		return blank(r.W, r.H)
	}
	p, ok := c.panel(id)
	if !ok {
		return blank(r.W, r.H)
	}

	props := c.props(id, fr)
	content, failed := c.guardView(id, p, props)
	if failed != nil {
		c.setPanel(id, failed)
	}

	in := r.Inner()
	body := lipgloss.NewStyle().MaxWidth(in.W).MaxHeight(props.Height).Render(content)
	titleStyle := c.palette.Header
	style := c.palette.Panel
	if props.Focused {
		style = c.palette.PanelFocus
		titleStyle = c.palette.Title
	}
	title := titleStyle.Render(runewidth.Truncate(id.Title(), in.W, "…"))
	return style.Width(in.W).Height(in.H).MaxHeight(r.H).Render(title + "\n" + body)
}

func blank(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	line := strings.Repeat(" ", w)
	lines := make([]string, h)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
