package scenarios

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/perf"
	"github.com/b/device-console/pkg/theme"
)

// Messages carry the token of the panel instance that produced them; a
// remounted panel has a new token and drops anything addressed to the old one.
type loadedMsg struct {
	token     string
	scenarios []Scenario
	err       error
}

type changedMsg struct {
	token string
}

// Panel is the ScenarioList collaborator. Build a fresh one per mount.
type Panel struct {
	store   Store
	token   string
	palette theme.Palette
	log     pslog.Logger

	watcher  *Watcher
	watchErr error

	all     []Scenario
	shown   []Scenario
	cursor  int
	loaded  bool
	err     error
	filter  textinput.Model
	editing bool
}

// NewPanel returns an unmounted panel over store.
func NewPanel(store Store, palette theme.Palette, logger pslog.Logger) *Panel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.CharLimit = 64

	token := uuid.NewString()
	return &Panel{
		store:   store,
		token:   token,
		palette: palette,
		log:     logging.OrDiscard(logger).With("panel", "scenarios", "mount", token),
		filter:  ti,
	}
}

// Factory builds a fresh panel for every mount.
func Factory(store Store, palette theme.Palette, logger pslog.Logger) console.Factory {
	return func() console.Panel {
		return NewPanel(store, palette, logger)
	}
}

func (p *Panel) Init() tea.Cmd {
	w, err := Watch(p.store.Dir)
	if err != nil {
		p.watchErr = err
		p.log.Warn("scenario watcher unavailable", "dir", p.store.Dir, "err", err)
		return p.load()
	}
	p.watcher = w
	p.log.Debug("scenario watcher started", "dir", p.store.Dir)
	return tea.Batch(p.load(), p.wait())
}

// Unmount stops the directory watcher.
func (p *Panel) Unmount() {
	if p.watcher != nil {
		_ = p.watcher.Close()
		p.watcher = nil
		p.log.Debug("scenario watcher stopped")
	}
}

func (p *Panel) load() tea.Cmd {
	store, token := p.store, p.token
	return func() tea.Msg {
		var list []Scenario
		var err error
		perf.Track("scenarios.list", func() { list, err = store.List() })
		return loadedMsg{token: token, scenarios: list, err: err}
	}
}

func (p *Panel) wait() tea.Cmd {
	if p.watcher == nil {
		return nil
	}
	ch, token := p.watcher.Changes(), p.token
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{token: token}
	}
}

func (p *Panel) Update(msg tea.Msg, props console.Props) (console.Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.token != p.token {
			return p, nil
		}
		p.loaded = true
		p.err = msg.err
		if msg.err == nil {
			p.all = msg.scenarios
			p.apply()
		}
		return p, nil
	case changedMsg:
		if msg.token != p.token || p.watcher == nil {
			return p, nil
		}
		return p, tea.Batch(p.load(), p.wait())
	case tea.KeyMsg:
		if p.editing {
			return p, p.editFilter(msg)
		}
		switch msg.String() {
		case "/":
			p.editing = true
			return p, p.filter.Focus()
		case "esc":
			p.filter.SetValue("")
			p.apply()
		case "j", "down":
			if p.cursor < len(p.shown)-1 {
				p.cursor++
			}
		case "k", "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "r":
			return p, p.load()
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i := msg.Y - p.headerRows() + p.offset(props); i >= 0 && i < len(p.shown) && msg.Y >= p.headerRows() {
				p.cursor = i
			}
		}
	}
	return p, nil
}

func (p *Panel) editFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		p.editing = false
		p.filter.Blur()
		return nil
	case "esc":
		p.editing = false
		p.filter.Blur()
		p.filter.SetValue("")
		p.apply()
		return nil
	}
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.apply()
	return cmd
}

func (p *Panel) apply() {
	p.shown = Rank(p.filter.Value(), p.all)
	p.cursor = min(p.cursor, max(len(p.shown)-1, 0))
}

func (p *Panel) headerRows() int {
	if p.editing || p.filter.Value() != "" {
		return 1
	}
	return 0
}

// offset is the index of the first visible row, keeping the cursor in view.
func (p *Panel) offset(props console.Props) int {
	rows := max(props.Height-p.headerRows(), 1)
	if p.cursor < rows {
		return 0
	}
	return p.cursor - rows + 1
}

func (p *Panel) View(props console.Props) string {
	width := max(props.Width, 1)
	var lines []string
	if p.headerRows() > 0 {
		lines = append(lines, p.filter.View())
	}

	switch {
	case p.err != nil:
		lines = append(lines, p.palette.Error.Render(runewidth.Truncate(p.err.Error(), width, "…")))
		return strings.Join(lines, "\n")
	case !p.loaded:
		lines = append(lines, p.palette.Muted.Render("loading scenarios…"))
		return strings.Join(lines, "\n")
	case len(p.shown) == 0:
		lines = append(lines, p.palette.Muted.Render(runewidth.Truncate("No scenarios in "+p.store.Dir, width, "…")))
		if p.watchErr != nil {
			lines = append(lines, p.palette.Error.Render(runewidth.Truncate(p.watchErr.Error(), width, "…")))
		}
		return strings.Join(lines, "\n")
	}

	rows := max(props.Height-p.headerRows(), 1)
	start := p.offset(props)
	for i := start; i < len(p.shown) && i < start+rows; i++ {
		line := runewidth.Truncate(summary(p.shown[i]), width, "…")
		if i == p.cursor && props.Focused {
			line = p.palette.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func summary(sc Scenario) string {
	parts := []string{sc.Name, fmt.Sprintf("%d actions", sc.ActionCount)}
	if sc.DurationMS > 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", sc.Duration().Seconds()))
	}
	if t := sc.Created(); !t.IsZero() {
		parts = append(parts, t.Format("Jan 2 15:04"))
	}
	return strings.Join(parts, " · ")
}

// Shown returns the scenarios in display order.
func (p *Panel) Shown() []Scenario { return p.shown }
