package console

// Layout is the vertical split of the right-hand column, in percent of the
// available rows. An unmounted panel has zero share and a false Mounted flag.
type Layout struct {
	Chat      int
	Scenarios int
	History   int

	ScenariosMounted bool
	HistoryMounted   bool
}

type visibility struct {
	scenarios, history bool
}

var layoutTable = map[visibility]Layout{
	{false, false}: {Chat: 100},
	{true, false}:  {Chat: 65, Scenarios: 35, ScenariosMounted: true},
	{false, true}:  {Chat: 65, History: 35, HistoryMounted: true},
	{true, true}:   {Chat: 40, Scenarios: 30, History: 30, ScenariosMounted: true, HistoryMounted: true},
}

// LayoutFor returns the split for s. It only looks at the two visibility flags.
func LayoutFor(s State) Layout {
	return layoutTable[visibility{s.ScenariosVisible, s.HistoryVisible}]
}

// Total is the sum of the mounted shares; always 100.
func (l Layout) Total() int {
	return l.Chat + l.Scenarios + l.History
}

// Rows converts the percentages into whole rows of total. Auxiliary panels
// are rounded down and chat takes the remainder, so the three always add up
// to total.
func (l Layout) Rows(total int) (chat, scenarios, history int) {
	if total <= 0 {
		return 0, 0, 0
	}
	if l.ScenariosMounted {
		scenarios = total * l.Scenarios / 100
	}
	if l.HistoryMounted {
		history = total * l.History / 100
	}
	return total - scenarios - history, scenarios, history
}
