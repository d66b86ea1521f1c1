package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/theme"
)

type fetchedMsg struct {
	token   string
	actions []Action
	err     error
}

type tickMsg struct {
	token string
}

// Panel is the ActionHistory collaborator. Build a fresh one per mount.
type Panel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	source   Source
	interval time.Duration
	token    string
	palette  theme.Palette
	log      pslog.Logger

	ring    *Ring
	view    viewport.Model
	loaded  bool
	err     error
	fetched time.Time
}

// NewPanel returns an unmounted panel whose fetches run under ctx until
// Unmount. An interval of zero disables polling.
func NewPanel(ctx context.Context, src Source, interval time.Duration, palette theme.Palette, logger pslog.Logger) *Panel {
	token := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	return &Panel{
		ctx:      ctx,
		cancel:   cancel,
		source:   src,
		interval: interval,
		token:    token,
		palette:  palette,
		log:      logging.OrDiscard(logger).With("panel", "history", "mount", token),
		ring:     NewRing(Capacity),
		view:     viewport.New(0, 0),
	}
}

// Factory builds a fresh panel for every mount.
func Factory(ctx context.Context, src Source, interval time.Duration, palette theme.Palette, logger pslog.Logger) console.Factory {
	return func() console.Panel {
		return NewPanel(ctx, src, interval, palette, logger)
	}
}

func (p *Panel) Init() tea.Cmd {
	return p.fetch()
}

// Unmount cancels a fetch still in flight.
func (p *Panel) Unmount() {
	p.cancel()
}

func (p *Panel) fetch() tea.Cmd {
	src, token, log, parent := p.source, p.token, p.log, p.ctx
	return func() tea.Msg {
		if src == nil {
			return fetchedMsg{token: token, err: fmt.Errorf("no history source configured")}
		}
		ctx := pslog.ContextWithLogger(parent, log)
		actions, err := src.Fetch(ctx)
		return fetchedMsg{token: token, actions: actions, err: err}
	}
}

func (p *Panel) tick() tea.Cmd {
	if p.interval <= 0 {
		return nil
	}
	token := p.token
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return tickMsg{token: token}
	})
}

func (p *Panel) Update(msg tea.Msg, props console.Props) (console.Panel, tea.Cmd) {
	p.resize(props)
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.token != p.token {
			return p, nil
		}
		p.loaded = true
		p.err = msg.err
		if msg.err != nil {
			p.log.Warn("history fetch failed", "err", msg.err)
		} else {
			atBottom := p.view.AtBottom() || p.ring.Len() == 0
			p.ring.Replace(msg.actions)
			p.fetched = time.Now()
			p.render()
			if atBottom {
				p.view.GotoBottom()
			}
		}
		return p, p.tick()
	case tickMsg:
		if msg.token != p.token {
			return p, nil
		}
		return p, p.fetch()
	case tea.KeyMsg:
		if msg.String() == "r" {
			return p, p.fetch()
		}
		var cmd tea.Cmd
		p.view, cmd = p.view.Update(msg)
		return p, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		p.view, cmd = p.view.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *Panel) resize(props console.Props) {
	w, h := max(props.Width, 0), max(props.Height-1, 0)
	if w == p.view.Width && h == p.view.Height {
		return
	}
	p.view.Width, p.view.Height = w, h
	p.render()
}

func (p *Panel) render() {
	w := max(p.view.Width, 1)
	items := p.ring.Items()
	lines := make([]string, 0, len(items))
	for _, a := range items {
		line := runewidth.Truncate(describe(a), w, "…")
		if a.Failed() {
			line = p.palette.Error.Render(line)
		}
		lines = append(lines, line)
	}
	p.view.SetContent(strings.Join(lines, "\n"))
}

func describe(a Action) string {
	var b strings.Builder
	if !a.Timestamp.IsZero() {
		b.WriteString(a.Timestamp.Local().Format("15:04:05"))
		b.WriteString("  ")
	}
	tool := a.Tool
	if tool == "" {
		tool = a.Type
	}
	b.WriteString(strings.TrimPrefix(tool, "mcp__mcp-android__"))
	if len(a.Params) > 0 {
		keys := make([]string, 0, len(a.Params))
		for k := range a.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, a.Params[k])
		}
		b.WriteString(" ")
		b.WriteString(strings.Join(parts, " "))
	}
	if a.Failed() {
		b.WriteString("  ✗ ")
		b.WriteString(a.ErrorText())
	}
	return b.String()
}

func (p *Panel) View(props console.Props) string {
	p.resize(props)
	var status string
	switch {
	case p.err != nil:
		status = p.palette.Error.Render(runewidth.Truncate(p.err.Error(), max(props.Width, 1), "…"))
	case !p.loaded:
		status = p.palette.Muted.Render("loading history…")
	case p.ring.Len() == 0:
		status = p.palette.Muted.Render("no actions yet")
	default:
		status = p.palette.Muted.Render(fmt.Sprintf("%d actions · updated %s", p.ring.Len(), p.fetched.Format("15:04:05")))
	}
	return p.view.View() + "\n" + status
}

// Actions returns the displayed actions, oldest first.
func (p *Panel) Actions() []Action { return p.ring.Items() }
