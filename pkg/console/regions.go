package console

// Rect is a screen rectangle in terminal cells, frame included.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Inner is r without its one-cell frame.
func (r Rect) Inner() Rect {
	in := Rect{X: r.X + 1, Y: r.Y + 1, W: r.W - 2, H: r.H - 2}
	if in.W < 0 {
		in.W = 0
	}
	if in.H < 0 {
		in.H = 0
	}
	return in
}

// RegionAction identifies what a click on a region does.
type RegionAction string

const (
	ActionToggleScenarios RegionAction = "toggle_scenarios"
	ActionToggleHistory   RegionAction = "toggle_history"
	ActionPanel           RegionAction = "panel"
)

// ClickableRegion is a hit-test target produced alongside each frame.
type ClickableRegion struct {
	Rect
	Action RegionAction
	Target PanelID // only for ActionPanel
}

// hitTest returns the first region containing (x, y). Buttons are listed
// before panels so they win on overlap.
func hitTest(regions []ClickableRegion, x, y int) (ClickableRegion, bool) {
	for _, r := range regions {
		if r.Contains(x, y) {
			return r, true
		}
	}
	return ClickableRegion{}, false
}
