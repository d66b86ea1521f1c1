package console

import tea "github.com/charmbracelet/bubbletea"

// DeviceSelectedMsg is emitted by the device selector when the user picks a device.
type DeviceSelectedMsg struct {
	ID string
}

// TapMsg is emitted by the device viewer with a tap in device pixels.
type TapMsg struct {
	X, Y int
}

// PropsChangedMsg is delivered to device-scoped panels right after the
// active device changes, so they can react to their new Props.
type PropsChangedMsg struct{}

// SelectDevice returns the command a selector uses to report a selection.
func SelectDevice(id string) tea.Cmd {
	return func() tea.Msg {
		return DeviceSelectedMsg{ID: id}
	}
}

// Tap returns the command a viewer uses to report a tap.
func Tap(x, y int) tea.Cmd {
	return func() tea.Msg {
		return TapMsg{X: x, Y: y}
	}
}

// TapConsumer receives every captured tap after LastClick is updated.
type TapConsumer func(Point) tea.Cmd
