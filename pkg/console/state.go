package console

import "fmt"

// Point is a tap location in the device's pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the point the way the status strip shows it: "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// State is a snapshot of everything the controller owns. It is only ever
// produced by Controller.State; panels receive Props instead.
type State struct {
	ActiveDevice string
	HasDevice    bool
	LastClick    *Point

	ScenariosVisible bool
	HistoryVisible   bool
}

// StatusStrip returns the strip text and whether the strip is shown at all.
func (s State) StatusStrip() (string, bool) {
	if s.LastClick == nil {
		return "", false
	}
	return s.LastClick.String(), true
}

// ScenariosLabel is the scenarios button text for the current state.
func (s State) ScenariosLabel() string {
	return toggleLabel("Scenarios", s.ScenariosVisible)
}

// HistoryLabel is the history button text for the current state.
func (s State) HistoryLabel() string {
	return toggleLabel("History", s.HistoryVisible)
}

func toggleLabel(noun string, visible bool) string {
	if visible {
		return "Hide " + noun
	}
	return "Show " + noun
}
