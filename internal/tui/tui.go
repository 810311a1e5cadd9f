// Package tui provides the Bubble Tea live preview behind `statusline watch`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// Frame is one rendered refresh of the status line.
type Frame struct {
	Lines    []string  // status line exactly as the host would show it
	Warnings []string  // collector warnings from this refresh
	At       time.Time // when the refresh finished
}

// RefreshFunc runs the collection pipeline once.
type RefreshFunc func(ctx context.Context) Frame

// Options configures the preview.
type Options struct {
	Title    string
	Interval time.Duration   // periodic refresh; zero disables it
	Changes  <-chan struct{} // transcript change notifications; may be nil
	Refresh  RefreshFunc
}

// ── Messages ────────────

type frameMsg Frame

type tickMsg time.Time

type changedMsg struct{}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the preview.
type Model struct {
	opts    Options
	ctx     context.Context
	spinner spinner.Model
	frame   Frame
	loading bool
	count   int
	vp      viewport.Model
	width   int
	height  int
	ready   bool
}

// New creates a preview model. ctx bounds every refresh.
func New(ctx context.Context, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = timeStyle
	if opts.Title == "" {
		opts.Title = "statusline watch"
	}
	return Model{opts: opts, ctx: ctx, spinner: sp, loading: true}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.tick(), m.waitForChange())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m.startRefresh()
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil

	case frameMsg:
		m.frame = Frame(msg)
		m.loading = false
		m.count++
		m.vp.SetContent(m.renderWarnings())
		return m, nil

	case tickMsg:
		next, cmd := m.startRefresh()
		return next, tea.Batch(cmd, next.tick())

	case changedMsg:
		next, cmd := m.startRefresh()
		return next, tea.Batch(cmd, next.waitForChange())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  " + m.opts.Title)

	var sb strings.Builder
	sb.WriteString("\n")
	if len(m.frame.Lines) == 0 {
		sb.WriteString(dimStyle.Render("  (waiting for first refresh)") + "\n")
	}
	for _, line := range m.frame.Lines {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString("  " + m.stateLine() + "\n")

	hint := "  r refresh  ↑/↓ scroll  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, sb.String(), m.vp.View(), statusBar)
}

// ── Refresh plumbing ──────────────

func (m Model) startRefresh() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.refresh())
}

func (m Model) refresh() tea.Cmd {
	fn, ctx := m.opts.Refresh, m.ctx
	return func() tea.Msg {
		f := fn(ctx)
		if f.At.IsZero() {
			f.At = time.Now()
		}
		return frameMsg(f)
	}
}

func (m Model) tick() tea.Cmd {
	if m.opts.Interval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.opts.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// ── Rendering ──────────────

func (m *Model) initViewport() {
	// title(1) + status lines block + state line + statusBar(1)
	vpHeight := m.height - 7
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.vp = viewport.New(m.width, vpHeight)
	m.vp.SetContent(m.renderWarnings())
}

func (m Model) stateLine() string {
	if m.loading {
		return m.spinner.View() + dimStyle.Render(" refreshing…")
	}
	return dimStyle.Render("updated ") + timeStyle.Render(m.frame.At.Format("15:04:05")) +
		dimStyle.Render(fmt.Sprintf("  (%d refreshes)", m.count))
}

func (m Model) renderWarnings() string {
	var sb strings.Builder
	sb.WriteString(sectionHeader.Render(fmt.Sprintf("  Warnings (%d)", len(m.frame.Warnings))) + "\n\n")
	if len(m.frame.Warnings) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, w := range m.frame.Warnings {
		sb.WriteString(bulletStyle.Render("  •") + "  " + w + "\n")
	}
	return sb.String()
}

// Run starts the preview and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
