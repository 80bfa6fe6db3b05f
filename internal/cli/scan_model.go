package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pantrykit/scanbatch/internal/capture"
	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/service"
)

var (
	scanTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	scanPhaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	scanNoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	scanDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	scanCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	scanCountStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
)

// decodeEventMsg carries one accepted decode into the UI loop, keeping
// queue mutations on the single bubbletea goroutine.
type decodeEventMsg struct {
	event capture.Event
}

// captureStartedMsg reports the outcome of the async capture start.
type captureStartedMsg struct {
	err error
}

// dispatchedMsg reports a completed dispatch.
type dispatchedMsg struct {
	result service.DispatchResult
}

type scanKeyMap struct {
	Manual   key.Binding
	Remove   key.Binding
	Clear    key.Binding
	Mode     key.Binding
	Dispatch key.Binding
	Toggle   key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

func defaultScanKeyMap() scanKeyMap {
	return scanKeyMap{
		Manual:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual entry")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Mode:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "mode")),
		Dispatch: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dispatch")),
		Toggle:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// scanModel is the interactive scan view: live queue on the left of
// the session, capture phase and mode in the header, manual entry on
// demand. Decode events arrive as messages, so all state changes run
// on the UI loop.
type scanModel struct {
	app    *App
	ctrl   *capture.Controller
	events chan capture.Event
	keys   scanKeyMap

	entries  []domain.ScanEntry
	cursor   int
	input    textinput.Model
	entering bool
	notice   string
	width    int
	height   int
	quitting bool
}

func newScanModel(app *App, ctrl *capture.Controller, events chan capture.Event) scanModel {
	ti := textinput.New()
	ti.Placeholder = "enter code"
	ti.CharLimit = 128
	return scanModel{
		app:     app,
		ctrl:    ctrl,
		events:  events,
		keys:    defaultScanKeyMap(),
		entries: app.Queue.Entries(),
		input:   ti,
	}
}

func (m scanModel) Init() tea.Cmd {
	return tea.Batch(m.startCapture(), m.waitForEvent())
}

func (m scanModel) startCapture() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return captureStartedMsg{err: ctrl.Start(context.Background())}
	}
}

func (m scanModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return decodeEventMsg{event: <-events}
	}
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case captureStartedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, capture.ErrNotIdle) {
				return m, nil
			}
			// Capture failure is non-fatal: manual entry still works.
			m.notice = "Scanner unavailable — press m for manual entry"
		}
		return m, nil

	case decodeEventMsg:
		ctx := context.Background()
		outcome, err := m.app.Queue.Add(ctx, msg.event.Code, msg.event.Format, msg.event.At)
		if err == nil {
			notifyOutcome(m.app, outcome)
			if outcome == service.OutcomeIncremented {
				m.notice = fmt.Sprintf("Repeat %s — count bumped", msg.event.Code)
			} else {
				m.notice = fmt.Sprintf("Scanned %s (%s)", msg.event.Code, msg.event.Format)
			}
		}
		m.entries = m.app.Queue.Entries()
		m.clampCursor()
		return m, m.waitForEvent()

	case dispatchedMsg:
		m.entries = m.app.Queue.Entries()
		m.cursor = 0
		m.notice = fmt.Sprintf("Dispatched %d items (%d scans)", msg.result.Entries, msg.result.Total)
		return m, nil

	case tea.KeyMsg:
		if m.entering {
			return m.updateManualEntry(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m scanModel) updateManualEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		code := strings.TrimSpace(m.input.Value())
		m.entering = false
		m.input.Blur()
		m.input.SetValue("")
		if code == "" {
			// Empty input is rejected at the boundary, nothing queued.
			return m, nil
		}
		outcome, err := addManual(context.Background(), m.app, code)
		if err == nil {
			if outcome == service.OutcomeIncremented {
				m.notice = fmt.Sprintf("Repeat %s — count bumped", code)
			} else {
				m.notice = fmt.Sprintf("Added %s (%s)", code, domain.Classify(code))
			}
		}
		m.entries = m.app.Queue.Entries()
		m.clampCursor()
		return m, nil
	case "esc":
		m.entering = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m scanModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Manual):
		m.entering = true
		m.notice = ""
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Toggle):
		if m.ctrl.Phase() == capture.PhaseIdle {
			m.notice = ""
			return m, m.startCapture()
		}
		m.ctrl.Stop()
		m.notice = "Capture stopped"
		return m, nil

	case key.Matches(msg, m.keys.Mode):
		m.notice = fmt.Sprintf("Mode: %s", modeLabel(m.app.Mode.Toggle()))
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		if len(m.entries) == 0 {
			return m, nil
		}
		_ = m.app.Queue.Remove(context.Background(), m.cursor)
		m.entries = m.app.Queue.Entries()
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		_ = m.app.Queue.Clear(context.Background())
		m.entries = nil
		m.cursor = 0
		m.notice = "Queue cleared"
		return m, nil

	case key.Matches(msg, m.keys.Dispatch):
		if len(m.entries) == 0 {
			m.notice = "Queue is empty, nothing to dispatch"
			return m, nil
		}
		app := m.app
		return m, func() tea.Msg {
			res, _ := app.Queue.Dispatch(context.Background(), app.Mode.Mode())
			return dispatchedMsg{result: res}
		}
	}
	return m, nil
}

func (m *scanModel) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m scanModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	phase := string(m.ctrl.Phase())
	header := scanTitleStyle.Render("scanbatch") + "  " +
		scanPhaseStyle.Render("["+phase+"]") + "  " +
		scanDimStyle.Render("mode: "+string(m.app.Mode.Mode()))
	b.WriteString(header + "\n\n")

	if len(m.entries) == 0 {
		b.WriteString(scanDimStyle.Render("Queue is empty — scan a code or press m for manual entry") + "\n")
	}
	for i, e := range m.entries {
		cursor := "  "
		if i == m.cursor {
			cursor = scanCursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s%-13s %s", cursor, e.Format, e.Code)
		if e.Count > 1 {
			line += "  " + scanCountStyle.Render(fmt.Sprintf("×%d", e.Count))
		}
		b.WriteString(line + "\n")
	}

	if m.entering {
		b.WriteString("\n" + m.input.View() + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + scanNoticeStyle.Render(m.notice) + "\n")
	}

	stats := m.app.Queue.Stats()
	cta := fmt.Sprintf("d: dispatch %d items (%d scans)", stats.Entries, stats.Total)
	help := strings.Join([]string{
		cta, "m: manual", "x: remove", "c: clear", "tab: mode", "s: start/stop", "q: quit",
	}, "  ")
	b.WriteString("\n" + scanDimStyle.Render(help) + "\n")

	return b.String()
}
