package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/console"
	"github.com/b/device-console/pkg/logging"
	"github.com/b/device-console/pkg/theme"
)

type role int

const (
	roleUser role = iota
	roleAssistant
	roleNote
	roleError
)

type entry struct {
	id   string
	role role
	text string
}

type replyMsg struct {
	id   string
	text string
	err  error
}

// Panel is the chat collaborator: a transcript over a single-line input.
type Panel struct {
	ctx       context.Context
	cancel    context.CancelFunc
	responder Responder
	palette   theme.Palette
	log       pslog.Logger

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model

	entries  []entry
	inFlight string // id of the pending request, empty when idle
	device   string
}

// New returns a chat panel. Requests run under ctx until Unmount. A nil
// responder answers every request with ErrNoResponder.
func New(ctx context.Context, r Responder, palette theme.Palette, logger pslog.Logger) *Panel {
	ti := textinput.New()
	ti.Placeholder = "Ask Claude to do something on the device…"
	ti.CharLimit = 2000
	ti.Prompt = "> "
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = palette.Title

	ctx, cancel := context.WithCancel(ctx)
	return &Panel{
		ctx:        ctx,
		cancel:     cancel,
		responder:  r,
		palette:    palette,
		log:        logging.OrDiscard(logger),
		input:      ti,
		transcript: viewport.New(0, 0),
		spinner:    s,
	}
}

func (p *Panel) Init() tea.Cmd {
	return textinput.Blink
}

// Unmount cancels the request in flight, if any.
func (p *Panel) Unmount() {
	p.cancel()
}

func (p *Panel) Update(msg tea.Msg, props console.Props) (console.Panel, tea.Cmd) {
	p.resize(props)
	p.syncFocus(props.Focused)

	switch msg := msg.(type) {
	case console.PropsChangedMsg:
		p.noteDevice(props)
		return p, nil
	case replyMsg:
		if msg.id != p.inFlight {
			return p, nil
		}
		p.inFlight = ""
		if msg.err != nil {
			p.log.Warn("chat request failed", "request", msg.id, "err", msg.err)
			p.append(entry{id: msg.id, role: roleError, text: msg.err.Error()})
		} else {
			p.append(entry{id: msg.id, role: roleAssistant, text: msg.text})
		}
		return p, nil
	case spinner.TickMsg:
		if p.inFlight == "" {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return p, p.submit(props)
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			p.transcript, cmd = p.transcript.Update(msg)
			return p, cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		p.transcript, cmd = p.transcript.Update(msg)
		return p, cmd
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Panel) submit(props console.Props) tea.Cmd {
	text := strings.TrimSpace(p.input.Value())
	if text == "" || p.inFlight != "" {
		return nil
	}
	p.input.SetValue("")

	id := uuid.NewString()
	p.inFlight = id
	p.append(entry{id: id, role: roleUser, text: text})

	prompt := BuildPrompt(text, props.DeviceID, props.HasDevice)
	r, log, parent := p.responder, p.log, p.ctx
	p.log.Info("chat request", "request", id, "device", props.DeviceID)
	return tea.Batch(p.spinner.Tick, func() tea.Msg {
		if r == nil {
			return replyMsg{id: id, err: ErrNoResponder}
		}
		ctx := pslog.ContextWithLogger(parent, log)
		text, err := r.Respond(ctx, prompt)
		return replyMsg{id: id, text: text, err: err}
	})
}

func (p *Panel) noteDevice(props console.Props) {
	device := ""
	if props.HasDevice {
		device = props.DeviceID
	}
	if device == p.device {
		return
	}
	p.device = device
	if device == "" {
		p.append(entry{id: uuid.NewString(), role: roleNote, text: "no device selected"})
		return
	}
	p.append(entry{id: uuid.NewString(), role: roleNote, text: "device " + device + " selected"})
}

func (p *Panel) append(e entry) {
	p.entries = append(p.entries, e)
	p.render()
	p.transcript.GotoBottom()
}

func (p *Panel) render() {
	w := max(p.transcript.Width, 1)
	wrap := lipgloss.NewStyle().Width(w)
	lines := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		switch e.role {
		case roleUser:
			lines = append(lines, wrap.Render(p.palette.Title.Render("you: ")+e.text))
		case roleAssistant:
			lines = append(lines, wrap.Render(p.palette.Header.Render("claude: ")+e.text))
		case roleNote:
			lines = append(lines, p.palette.Muted.Render(wrap.Render("· "+e.text)))
		case roleError:
			lines = append(lines, p.palette.Error.Render(wrap.Render("error: "+e.text)))
		}
	}
	p.transcript.SetContent(strings.Join(lines, "\n"))
}

func (p *Panel) resize(props console.Props) {
	w, h := max(props.Width, 0), max(props.Height-1, 0)
	if w == p.transcript.Width && h == p.transcript.Height {
		return
	}
	p.transcript.Width, p.transcript.Height = w, h
	p.input.Width = max(w-lipgloss.Width(p.input.Prompt)-1, 1)
	p.render()
	p.transcript.GotoBottom()
}

func (p *Panel) syncFocus(focused bool) {
	if focused && !p.input.Focused() {
		p.input.Focus()
	} else if !focused && p.input.Focused() {
		p.input.Blur()
	}
}

func (p *Panel) View(props console.Props) string {
	p.resize(props)
	if len(p.entries) == 0 {
		p.transcript.SetContent(p.palette.Muted.Render("Type a request and press enter."))
	}

	bottom := p.input.View()
	if p.inFlight != "" {
		bottom = p.spinner.View() + " " + p.palette.Muted.Render("thinking…")
	}
	return p.transcript.View() + "\n" + bottom
}

// Transcript returns the plain text of every entry, oldest first.
func (p *Panel) Transcript() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.text
	}
	return out
}
