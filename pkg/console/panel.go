package console

import tea "github.com/charmbracelet/bubbletea"

// PanelID names the five collaborator slots.
type PanelID int

const (
	PanelSelector PanelID = iota
	PanelViewer
	PanelChat
	PanelScenarios
	PanelHistory
)

func (p PanelID) String() string {
	switch p {
	case PanelSelector:
		return "selector"
	case PanelViewer:
		return "viewer"
	case PanelChat:
		return "chat"
	case PanelScenarios:
		return "scenarios"
	case PanelHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Title is the heading drawn above a panel.
func (p PanelID) Title() string {
	switch p {
	case PanelSelector:
		return "Devices"
	case PanelViewer:
		return "Screen"
	case PanelChat:
		return "Claude"
	case PanelScenarios:
		return "Scenarios"
	case PanelHistory:
		return "History"
	default:
		return "?"
	}
}

// Props are the read-only inputs a panel receives for one update or render.
// Scenario and history panels always get empty device fields.
type Props struct {
	DeviceID  string
	HasDevice bool

	Width   int // content cells, frame excluded
	Height  int
	Focused bool
}

// Panel is a leaf collaborator. Init runs when the panel is mounted. Panels
// talk back to the controller only through the messages their commands
// return (DeviceSelectedMsg, TapMsg).
type Panel interface {
	Init() tea.Cmd
	Update(msg tea.Msg, props Props) (Panel, tea.Cmd)
	View(props Props) string
}

// Unmounter is implemented by panels that hold resources while mounted.
type Unmounter interface {
	Unmount()
}

// Factory builds a fresh panel for every mount.
type Factory func() Panel

// Slot is the mount state of an auxiliary panel: Hidden or Visible.
type Slot interface {
	isSlot()
}

// Hidden is an unmounted slot. It has no panel instance at all.
type Hidden struct{}

// Visible is a mounted slot holding the live panel instance.
type Visible struct {
	Panel Panel
}

func (Hidden) isSlot()  {}
func (Visible) isSlot() {}

// IsVisible reports whether s holds a mounted panel.
func IsVisible(s Slot) bool {
	_, ok := s.(Visible)
	return ok
}
