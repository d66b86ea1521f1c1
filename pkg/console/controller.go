// Package console is the layout and interaction controller of the device
// automation console. It owns the active device, the last captured tap and
// the visibility of the scenario and history panels, derives the panel
// split from that state, and routes events between the five collaborators.
package console

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/theme"
)

const defaultViewerPercent = 40

// Options wires the collaborators into a Controller. Nil panels and
// factories are replaced by empty placeholders.
type Options struct {
	Selector Panel
	Viewer   Panel
	Chat     Panel

	Scenarios Factory
	History   Factory

	Bindings           config.Bindings
	ViewerWidthPercent int
	Palette            theme.Palette
	Logger             pslog.Logger
}

// Controller is the single writer of console state. It implements tea.Model.
type Controller struct {
	activeDevice string
	hasDevice    bool
	lastClick    *Point

	selector Panel
	viewer   Panel
	chat     Panel

	scenarios    Slot
	history      Slot
	newScenarios Factory
	newHistory   Factory

	// gen counts mounts per panel; commands from an older mount are stale.
	gen map[PanelID]int

	tapConsumers []TapConsumer
	closed       bool

	keys      config.Bindings
	viewerPct int
	palette   theme.Palette
	log       pslog.Logger

	width  int
	height int
	focus  PanelID
}

// New builds a controller in its initial state: no device, no tap, both
// auxiliary panels hidden.
func New(opts Options) *Controller {
	c := &Controller{
		selector:     orPlaceholder(opts.Selector, PanelSelector),
		viewer:       orPlaceholder(opts.Viewer, PanelViewer),
		chat:         orPlaceholder(opts.Chat, PanelChat),
		scenarios:    Hidden{},
		history:      Hidden{},
		newScenarios: orPlaceholderFactory(opts.Scenarios, PanelScenarios),
		newHistory:   orPlaceholderFactory(opts.History, PanelHistory),
		keys:         opts.Bindings,
		viewerPct:    opts.ViewerWidthPercent,
		palette:      opts.Palette,
		log:          logging.OrDiscard(opts.Logger),
		focus:        PanelChat,
		gen:          make(map[PanelID]int),
	}
	defaults := config.Default().Bindings
	if c.keys.ToggleScenarios == "" {
		c.keys.ToggleScenarios = defaults.ToggleScenarios
	}
	if c.keys.ToggleHistory == "" {
		c.keys.ToggleHistory = defaults.ToggleHistory
	}
	if c.keys.FocusNext == "" {
		c.keys.FocusNext = defaults.FocusNext
	}
	if c.keys.Quit == "" {
		c.keys.Quit = defaults.Quit
	}
	if c.viewerPct <= 0 || c.viewerPct >= 100 {
		c.viewerPct = defaultViewerPercent
	}
	return c
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State {
	s := State{
		ActiveDevice:     c.activeDevice,
		HasDevice:        c.hasDevice,
		ScenariosVisible: IsVisible(c.scenarios),
		HistoryVisible:   IsVisible(c.history),
	}
	if c.lastClick != nil {
		p := *c.lastClick
		s.LastClick = &p
	}
	return s
}

// Layout is LayoutFor applied to the current state.
func (c *Controller) Layout() Layout {
	return LayoutFor(c.State())
}

// ScenariosLabel is the current scenarios button text.
func (c *Controller) ScenariosLabel() string { return c.State().ScenariosLabel() }

// HistoryLabel is the current history button text.
func (c *Controller) HistoryLabel() string { return c.State().HistoryLabel() }

// StatusStrip is the current strip text and whether it is rendered.
func (c *Controller) StatusStrip() (string, bool) { return c.State().StatusStrip() }

// Scenarios returns the scenario slot.
func (c *Controller) Scenarios() Slot { return c.scenarios }

// History returns the history slot.
func (c *Controller) History() Slot { return c.history }

// Focus returns the panel receiving key input.
func (c *Controller) Focus() PanelID { return c.focus }

// Mounted lists the panels in the render tree, in render order.
func (c *Controller) Mounted() []PanelID {
	ids := []PanelID{PanelSelector, PanelViewer, PanelChat}
	if IsVisible(c.scenarios) {
		ids = append(ids, PanelScenarios)
	}
	if IsVisible(c.history) {
		ids = append(ids, PanelHistory)
	}
	return ids
}

// OnTap attaches a consumer that runs after every captured tap.
func (c *Controller) OnTap(fn TapConsumer) {
	if fn != nil {
		c.tapConsumers = append(c.tapConsumers, fn)
	}
}

// SelectDevice stores id as the active device. The id is not validated.
// Device-scoped panels are then updated with PropsChangedMsg.
func (c *Controller) SelectDevice(id string) tea.Cmd {
	c.activeDevice = id
	c.hasDevice = true
	c.log.Debug("device selected", "device", id)
	return c.notifyDeviceScoped()
}

// ClearDevice returns to the "no device selected" state.
func (c *Controller) ClearDevice() tea.Cmd {
	c.activeDevice = ""
	c.hasDevice = false
	c.log.Debug("device cleared")
	return c.notifyDeviceScoped()
}

// RecordTap overwrites the last tap and hands it to the attached consumers.
// Coordinates are not bounds-checked.
func (c *Controller) RecordTap(x, y int) tea.Cmd {
	p := Point{X: x, Y: y}
	c.lastClick = &p
	c.log.Debug("tap captured", "x", x, "y", y)

	var cmds []tea.Cmd
	for _, fn := range c.tapConsumers {
		cmds = append(cmds, c.guardTap(fn, p))
	}
	return tea.Batch(cmds...)
}

// ToggleScenarios flips scenario visibility, mounting a fresh ScenarioList
// or unmounting the current one. The returned command is the new panel's Init.
func (c *Controller) ToggleScenarios() tea.Cmd {
	var cmd tea.Cmd
	c.scenarios, cmd = c.toggle(PanelScenarios, c.scenarios, c.newScenarios)
	return cmd
}

// ToggleHistory flips history visibility, mounting or unmounting ActionHistory.
func (c *Controller) ToggleHistory() tea.Cmd {
	var cmd tea.Cmd
	c.history, cmd = c.toggle(PanelHistory, c.history, c.newHistory)
	return cmd
}

func (c *Controller) toggle(id PanelID, slot Slot, factory Factory) (Slot, tea.Cmd) {
	if v, ok := slot.(Visible); ok {
		c.guardUnmount(id, v.Panel)
		if c.focus == id {
			c.focus = PanelChat
		}
		c.log.Info("panel unmounted", "panel", id.String())
		return Hidden{}, nil
	}
	c.gen[id]++
	p, cmd := c.guardInit(id, c.build(id, factory))
	c.log.Info("panel mounted", "panel", id.String())
	return Visible{Panel: p}, cmd
}

func (c *Controller) build(id PanelID, factory Factory) (p Panel) {
	defer func() {
		if r := recover(); r != nil {
			p = c.fail(id, "mount", r, nil)
		}
	}()
	if p = factory(); p == nil {
		p = placeholder{id: id}
	}
	return p
}

// Close unmounts every mounted panel. Calls after the first do nothing.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, id := range c.Mounted() {
		if p, ok := c.panel(id); ok {
			c.guardUnmount(id, p)
		}
	}
	c.scenarios, c.history = Hidden{}, Hidden{}
	c.log.Info("console closed")
}

// Init mounts the three always-present panels.
func (c *Controller) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range []PanelID{PanelSelector, PanelViewer, PanelChat} {
		p, _ := c.panel(id)
		p, cmd := c.guardInit(id, p)
		c.setPanel(id, p)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		return c, nil
	case tea.KeyMsg:
		return c, c.handleKey(msg)
	case tea.MouseMsg:
		return c, c.handleMouse(msg)
	case DeviceSelectedMsg:
		return c, c.SelectDevice(msg.ID)
	case TapMsg:
		return c, c.RecordTap(msg.X, msg.Y)
	case panelFailedMsg:
		if msg.gen != c.gen[msg.id] {
			c.log.Debug("stale panel failure dropped", "panel", msg.id.String(), "reason", msg.reason)
			return c, nil
		}
		if p, ok := c.panel(msg.id); ok {
			c.setPanel(msg.id, c.fail(msg.id, "command", msg.reason, p))
		}
		return c, nil
	}
	return c, c.broadcast(msg)
}

func (c *Controller) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case c.keys.Quit:
		c.Close()
		return tea.Quit
	case c.keys.ToggleScenarios:
		return c.ToggleScenarios()
	case c.keys.ToggleHistory:
		return c.ToggleHistory()
	case c.keys.FocusNext:
		c.focusNext()
		return nil
	}
	return c.updateOne(c.focus, msg, c.frame())
}

func (c *Controller) focusNext() {
	ids := c.Mounted()
	for i, id := range ids {
		if id == c.focus {
			c.focus = ids[(i+1)%len(ids)]
			return
		}
	}
	c.focus = PanelChat
}

func (c *Controller) handleMouse(msg tea.MouseMsg) tea.Cmd {
	fr := c.frame()
	region, ok := hitTest(c.regions(fr), msg.X, msg.Y)
	if !ok {
		return nil
	}
	press := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft

	switch region.Action {
	case ActionToggleScenarios:
		if press {
			return c.ToggleScenarios()
		}
		return nil
	case ActionToggleHistory:
		if press {
			return c.ToggleHistory()
		}
		return nil
	}

	if press {
		c.focus = region.Target
	}
	// Content starts below the frame border and the title row.
	local := msg
	local.X = msg.X - region.X - 1
	local.Y = msg.Y - region.Y - 2
	in := region.Inner()
	if local.X < 0 || local.Y < 0 || local.X >= in.W || local.Y >= in.H-1 {
		return nil
	}
	return c.updateOne(region.Target, local, fr)
}

// notifyDeviceScoped re-runs the panels that consume the active device.
func (c *Controller) notifyDeviceScoped() tea.Cmd {
	fr := c.frame()
	return tea.Batch(
		c.updateOne(PanelSelector, PropsChangedMsg{}, fr),
		c.updateOne(PanelViewer, PropsChangedMsg{}, fr),
		c.updateOne(PanelChat, PropsChangedMsg{}, fr),
	)
}

func (c *Controller) broadcast(msg tea.Msg) tea.Cmd {
	fr := c.frame()
	var cmds []tea.Cmd
	for _, id := range c.Mounted() {
		cmds = append(cmds, c.updateOne(id, msg, fr))
	}
	return tea.Batch(cmds...)
}

func (c *Controller) updateOne(id PanelID, msg tea.Msg, fr frame) tea.Cmd {
	p, ok := c.panel(id)
	if !ok {
		return nil
	}
	next, cmd := c.guardUpdate(id, p, msg, c.props(id, fr))
	c.setPanel(id, next)
	return cmd
}

func (c *Controller) panel(id PanelID) (Panel, bool) {
	switch id {
	case PanelSelector:
		return c.selector, true
	case PanelViewer:
		return c.viewer, true
	case PanelChat:
		return c.chat, true
	case PanelScenarios:
		if v, ok := c.scenarios.(Visible); ok {
			return v.Panel, true
		}
	case PanelHistory:
		if v, ok := c.history.(Visible); ok {
			return v.Panel, true
		}
	}
	return nil, false
}

// setPanel stores p for id. Hidden slots stay hidden.
func (c *Controller) setPanel(id PanelID, p Panel) {
	switch id {
	case PanelSelector:
		c.selector = p
	case PanelViewer:
		c.viewer = p
	case PanelChat:
		c.chat = p
	case PanelScenarios:
		if IsVisible(c.scenarios) {
			c.scenarios = Visible{Panel: p}
		}
	case PanelHistory:
		if IsVisible(c.history) {
			c.history = Visible{Panel: p}
		}
	}
}

func (c *Controller) props(id PanelID, fr frame) Props {
	in := fr.panels[id].Inner()
	p := Props{
		Width:   in.W,
		Height:  max(in.H-1, 0),
		Focused: c.focus == id,
	}
	switch id {
	case PanelSelector, PanelViewer, PanelChat:
		p.DeviceID = c.activeDevice
		p.HasDevice = c.hasDevice
	}
	return p
}

// placeholder stands in for a collaborator that was not provided.
type placeholder struct {
	id PanelID
}

func (placeholder) Init() tea.Cmd                          { return nil }
func (p placeholder) Update(tea.Msg, Props) (Panel, tea.Cmd) { return p, nil }
func (p placeholder) View(props Props) string {
	return lipgloss.NewStyle().Faint(true).Render(p.id.Title() + " not configured")
}

func orPlaceholder(p Panel, id PanelID) Panel {
	if p == nil {
		return placeholder{id: id}
	}
	return p
}

func orPlaceholderFactory(f Factory, id PanelID) Factory {
	if f == nil {
		return func() Panel { return placeholder{id: id} }
	}
	return f
}
