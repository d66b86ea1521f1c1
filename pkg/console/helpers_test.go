package console

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/theme"
)

// lifecycle counts mounts and unmounts across every instance a factory builds.
type lifecycle struct {
	mounts   int
	unmounts int
	events   []string
}

type fakePanel struct {
	body  string
	life  *lifecycle
	seq   int
	props Props
	msgs  []tea.Msg

	panicOnView   bool
	panicOnUpdate bool
	initCmd       tea.Cmd
}

func (f *fakePanel) Init() tea.Cmd {
	if f.life != nil {
		f.life.mounts++
		f.life.events = append(f.life.events, "mount")
	}
	return f.initCmd
}

func (f *fakePanel) Update(msg tea.Msg, props Props) (Panel, tea.Cmd) {
	if f.panicOnUpdate {
		panic("update exploded")
	}
	f.props = props
	f.msgs = append(f.msgs, msg)
	return f, nil
}

func (f *fakePanel) View(props Props) string {
	if f.panicOnView {
		panic("view exploded")
	}
	f.props = props
	return f.body
}

func (f *fakePanel) Unmount() {
	if f.life != nil {
		f.life.unmounts++
		f.life.events = append(f.life.events, "unmount")
	}
}

// factory builds numbered fakePanels sharing one lifecycle.
func factory(body string, life *lifecycle, built *[]*fakePanel) Factory {
	return func() Panel {
		p := &fakePanel{body: body, life: life, seq: len(*built) + 1}
		*built = append(*built, p)
		return p
	}
}

type harness struct {
	c         *Controller
	selector  *fakePanel
	viewer    *fakePanel
	chat      *fakePanel
	scenLife  *lifecycle
	histLife  *lifecycle
	scenBuilt []*fakePanel
	histBuilt []*fakePanel
}

func newHarness() *harness {
	h := &harness{
		selector: &fakePanel{body: "SELECTOR-BODY"},
		viewer:   &fakePanel{body: "VIEWER-BODY"},
		chat:     &fakePanel{body: "CHAT-BODY"},
		scenLife: &lifecycle{},
		histLife: &lifecycle{},
	}
	h.c = New(Options{
		Selector:           h.selector,
		Viewer:             h.viewer,
		Chat:               h.chat,
		Scenarios:          factory("SCENARIOS-BODY", h.scenLife, &h.scenBuilt),
		History:            factory("HISTORY-BODY", h.histLife, &h.histBuilt),
		Bindings:           config.Default().Bindings,
		ViewerWidthPercent: 40,
		Palette:            theme.Fixed(config.Default().Theme, true),
	})
	h.c.Init()
	h.c.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func leftClick(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// drain runs cmd and feeds every resulting message back into the controller.
func drain(c *Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, child := range batch {
			drain(c, child)
		}
		return
	}
	if msg == nil {
		return
	}
	_, next := c.Update(msg)
	drain(c, next)
}
