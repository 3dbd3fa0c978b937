// Package tui is the terminal front-end for a classification session. It
// draws the session's pane buffer and routes every label key to
// Session.Decide.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/content"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30

	defaultWidth  = 100
	defaultHeight = 30
	minPaneWidth  = 20
	minPaneHeight = 3
)

// Options configures a Model.
type Options struct {
	// Context is passed to every session call. Defaults to Background.
	Context context.Context
	Session *classify.Session
	// Buffer is the surface the session's provider draws into.
	Buffer *content.Buffer
	Logger *zap.Logger
	// Wrap fixes the text width; 0 follows the pane width.
	Wrap int
	// Output receives the screen; defaults to stdout.
	Output io.Writer
	// InputTTY reads keys from the controlling terminal instead of stdin.
	InputTTY bool
	// Now is the clock used for pace tracking; defaults to time.Now.
	Now func() time.Time
}

// Model is the bubbletea model for a running session.
type Model struct {
	ctx     context.Context
	session *classify.Session
	buffer  *content.Buffer
	logger  *zap.Logger
	now     func() time.Time
	wrap    int

	keys     keyMap
	help     help.Model
	progress progress.Model
	panes    []viewport.Model

	width    int
	height   int
	selected int
	version  uint64

	status    string
	statusErr bool

	// pace holds seconds per decision for the last historySize decisions.
	pace      []float64
	shownAt   time.Time
	startedAt time.Time

	err      error
	quitting bool
}

// startMsg triggers Session.Start once the program is running.
type startMsg struct{}

// New creates a model. The session must not have been started.
func New(opts Options) (Model, error) {
	if opts.Session == nil {
		return Model{}, fmt.Errorf("%w: tui needs a session", classify.ErrConfiguration)
	}
	if opts.Buffer == nil {
		return Model{}, fmt.Errorf("%w: tui needs a pane buffer", classify.ErrConfiguration)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		ctx:     ctx,
		session: opts.Session,
		buffer:  opts.Buffer,
		logger:  logger.Named("tui"),
		now:     now,
		wrap:    opts.Wrap,
		keys:    defaultKeyMap(),
		help:    help.New(),
		progress: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(40),
		),
		panes: make([]viewport.Model, opts.Session.Mode().Panes()),
		pace:  make([]float64, 0, historySize),
	}
	m.resize(defaultWidth, defaultHeight)
	return m, nil
}

// Run starts the program in the alternate screen and blocks until the
// session completes or the labeler quits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.InputTTY {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }

// Init starts the session.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		return m.start()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	m.startedAt = m.now()
	m.shownAt = m.startedAt
	err := m.session.Start(m.ctx)
	switch {
	case err == nil:
	case errors.Is(err, classify.ErrContentUnavailable):
		m.showError(err)
	default:
		m.err = err
		m.quitting = true
		return m, tea.Quit
	}
	m.sync()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	labels := m.session.Labels()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Label):
		idx := int(msg.String()[0] - '1')
		if idx >= len(labels) {
			m.setStatus(fmt.Sprintf("no label on key %s", msg.String()), true)
			return m, nil
		}
		m.selected = idx
		return m.decide(labels[idx])

	case key.Matches(msg, m.keys.Prev):
		m.selected = (m.selected + len(labels) - 1) % len(labels)

	case key.Matches(msg, m.keys.Next):
		m.selected = (m.selected + 1) % len(labels)

	case key.Matches(msg, m.keys.Decide):
		return m.decide(labels[m.selected])

	case key.Matches(msg, m.keys.Fallback):
		return m.fetchFallback()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)

	case key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown):
		var cmds []tea.Cmd
		for i := range m.panes {
			var cmd tea.Cmd
			m.panes[i], cmd = m.panes[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) decide(label string) (tea.Model, tea.Cmd) {
	err := m.session.Decide(m.ctx, label)
	switch {
	case err == nil:
		m.recordPace()
		m.setStatus(fmt.Sprintf("recorded %s", label), false)
	case errors.Is(err, classify.ErrContentUnavailable):
		// The decision was written; only the next item failed to show.
		m.recordPace()
		m.showError(err)
	case errors.Is(err, classify.ErrSessionComplete):
	default:
		m.showError(err)
		return m, nil
	}

	if m.session.Done() {
		m.quitting = true
		return m, tea.Quit
	}
	m.sync()
	return m, nil
}

func (m Model) fetchFallback() (tea.Model, tea.Cmd) {
	if !m.session.CanFetchFallback() {
		m.setStatus("no fallback source for this provider", true)
		return m, nil
	}
	m.setStatus("fetching text...", false)
	if err := m.session.FetchFallback(m.ctx); err != nil {
		m.showError(err)
	} else {
		m.setStatus("fetched text", false)
	}
	m.sync()
	return m, nil
}

func (m *Model) recordPace() {
	now := m.now()
	m.pace = appendToHistory(m.pace, now.Sub(m.shownAt).Seconds())
	m.shownAt = now
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *Model) showError(err error) {
	m.logger.Debug("showing error", zap.Error(err))
	m.setStatus(err.Error(), true)
	m.buffer.SetNotice(err.Error())
}

// sync copies the buffer into the viewports when it changed.
func (m *Model) sync() {
	view := m.buffer.Snapshot()
	if view.Version == m.version {
		return
	}
	m.version = view.Version
	for i := range m.panes {
		text := ""
		if i < len(view.Panes) {
			text = view.Panes[i].Text
		}
		m.panes[i].SetContent(text)
		m.panes[i].GotoTop()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	n := len(m.panes)

	paneWidth := max(width/n-paneChrome, minPaneWidth)
	// header, progress, link, pane titles and borders, buttons, sparkline, status, help
	chrome := 2 + 1 + 3 + 1 + sparklineHeight + 1 + 1
	if m.help.ShowAll {
		chrome += 3
	}
	paneHeight := max(height-chrome, minPaneHeight)

	for i := range m.panes {
		if m.panes[i].Width == 0 {
			m.panes[i] = viewport.New(paneWidth, paneHeight)
		} else {
			m.panes[i].Width = paneWidth
			m.panes[i].Height = paneHeight
		}
	}
	m.help.Width = width
	m.progress.Width = min(40, max(width/3, 10))

	textWidth := paneWidth
	if m.wrap > 0 {
		textWidth = min(m.wrap, paneWidth)
	}
	if err := m.buffer.SetWidth(textWidth); err != nil {
		m.logger.Warn("re-render failed", zap.Error(err))
	}
	m.version = 0
	m.sync()
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

// View renders the session screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	view := m.buffer.Snapshot()
	if view.Link != nil {
		b.WriteString(labelStyle.Render("Link: ") +
			valueStyle.Render(view.Link.Source) +
			dimStyle.Render(" → ") +
			valueStyle.Render(view.Link.Target))
	}
	b.WriteString("\n")
	b.WriteString(m.renderPanes(view))
	b.WriteString("\n")
	b.WriteString(m.renderButtons())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Pace: ") + valueStyle.Render(FormatPace(m.pace)) + "  " + createSparkline(m.pace))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(view))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	p := m.session.Progress()
	ratio := 0.0
	if p.Items > 0 {
		ratio = float64(p.Items-p.Remaining) / float64(p.Items)
	}
	elapsed := time.Duration(0)
	if !m.startedAt.IsZero() {
		elapsed = m.now().Sub(m.startedAt)
	}

	header := headerStyle.Render(" handclass ") + "  " +
		labelStyle.Render("Item: ") + valueStyle.Render(p.String()) + "  " +
		labelStyle.Render("Left: ") + valueStyle.Render(fmt.Sprintf("%d", p.Remaining)) + "  " +
		labelStyle.Render("Mode: ") + valueStyle.Render(m.session.Mode().String()) + "  " +
		dimStyle.Render(FormatDuration(elapsed))
	counts := labelStyle.Render("Counts: ") +
		valueStyle.Render(FormatCounts(m.session.Labels(), m.session.Counts())) + "  " +
		m.progress.ViewAs(ratio)
	return header + "\n" + counts
}

func (m Model) renderPanes(view content.View) string {
	rendered := make([]string, len(m.panes))
	for i := range m.panes {
		title := ""
		if i < len(view.Panes) {
			title = view.Panes[i].Identifier
		}
		maxTitle := m.panes[i].Width
		if r := []rune(title); len(r) > maxTitle {
			title = string(r[:maxTitle-1]) + "…"
		}
		rendered[i] = paneStyle.Render(paneTitleStyle.Render(title) + "\n" + m.panes[i].View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderButtons() string {
	var b strings.Builder
	for i, l := range m.session.Labels() {
		text := l
		if i < 9 {
			text = fmt.Sprintf("%d %s", i+1, l)
		}
		style := buttonStyle
		if i == m.selected {
			style = selectedButtonStyle
		}
		b.WriteString(style.Render(text))
	}
	if m.session.CanFetchFallback() {
		b.WriteString(fallbackButtonStyle.Render("f fetch text"))
	}
	return b.String()
}

func (m Model) renderStatus(view content.View) string {
	switch {
	case m.status != "" && m.statusErr:
		return errorStyle.Render("✗ " + m.status)
	case view.Notice != "":
		return warningStyle.Render("⚠ " + view.Notice)
	case m.status != "":
		return dimStyle.Render(m.status)
	}
	return ""
}
