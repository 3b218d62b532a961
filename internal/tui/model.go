package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"wrapped/internal/dispatch"
	"wrapped/internal/export"
	"wrapped/internal/scene"
	"wrapped/internal/services"
	"wrapped/internal/surface"
)

// Navigator is the carousel as seen by the viewer.
type Navigator interface {
	Index() int
	Count() int
	Locked() bool
	Next()
	Previous()
	GoTo(i int)
}

// Viewer exposes the mounted panel.
type Viewer interface {
	Current() surface.Mounted
}

// Exporter starts exports. export.Manager satisfies it.
type Exporter interface {
	ExportImage(ctx context.Context, index int) (export.Job, error)
	ExportVideo(ctx context.Context) (export.Job, error)
}

// Options describes what the viewer shows.
type Options struct {
	Subject string
	Period  string
}

type exportDoneMsg struct {
	job export.Job
	err error
}

// Model is the bubbletea model for the card viewer.
type Model struct {
	ctx      context.Context
	nav      Navigator
	view     Viewer
	exporter Exporter
	feed     *Feed
	opts     Options

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int

	exporting bool
	cancel    context.CancelFunc
	quitting  bool
	job       *export.Job
	err       error
	status    string
	notices   []string
}

// New builds the viewer. ctx bounds every export the viewer starts.
func New(ctx context.Context, nav Navigator, view Viewer, exporter Exporter, feed *Feed, opts Options) Model {
	if feed == nil {
		feed = NewFeed()
	}
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = busyStyle
	return Model{
		ctx:      ctx,
		nav:      nav,
		view:     view,
		exporter: exporter,
		feed:     feed,
		opts:     opts,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  spin,
	}
}

// Init starts listening to the feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForJob(m.feed.jobs), waitForStatus(m.feed.status), m.spinner.Tick)
}

// Update handles input and export progress.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case jobMsg:
		job := export.Job(msg)
		if m.exporting {
			m.job = &job
		}
		return m, waitForJob(m.feed.jobs)

	case statusMsg:
		switch {
		case msg.notice:
			m.notices = append(m.notices, msg.text)
		case msg.level >= slog.LevelWarn:
			m.status = msg.text
		}
		return m, waitForStatus(m.feed.status)

	case exportDoneMsg:
		m.exporting = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		job := msg.job
		m.job = &job
		m.err = msg.err
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.exporting {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.exporting || m.nav.Locked() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Prev):
		m.nav.Previous()
	case key.Matches(msg, m.keys.Next):
		m.nav.Next()
	case key.Matches(msg, m.keys.First):
		m.nav.GoTo(0)
	case key.Matches(msg, m.keys.Last):
		m.nav.GoTo(m.nav.Count() - 1)
	case key.Matches(msg, m.keys.Image):
		index := m.nav.Index()
		return m.startExport(func(ctx context.Context) (export.Job, error) {
			return m.exporter.ExportImage(ctx, index)
		})
	case key.Matches(msg, m.keys.Video):
		return m.startExport(m.exporter.ExportVideo)
	}
	return m, nil
}

func (m Model) startExport(run func(context.Context) (export.Job, error)) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.exporting = true
	m.cancel = cancel
	m.job = nil
	m.err = nil
	m.status = ""
	m.notices = nil
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		job, err := run(ctx)
		return exportDoneMsg{job: job, err: err}
	})
}

// View renders the active card, the carousel position and export status.
func (m Model) View() string {
	if m.quitting && !m.exporting {
		return ""
	}
	mounted := m.view.Current()

	header := headerStyle.Render(fmt.Sprintf("%s's %s Wrapped", m.opts.Subject, m.opts.Period))
	position := subtleStyle.Render(fmt.Sprintf("%d / %d", m.nav.Index()+1, m.nav.Count()))

	var sections []string
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, header, " ", position),
		m.renderCard(mounted),
		m.renderDots(),
	)
	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderCard(mounted surface.Mounted) string {
	width := 48
	if m.width > 0 && m.width-4 < width {
		width = max(m.width-4, 20)
	}
	title := cardTitleStyle.Render(mounted.Panel.Title)
	body := strings.Join(cardLines(mounted.Root), "\n")
	return cardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m Model) renderDots() string {
	dots := make([]string, m.nav.Count())
	for i := range dots {
		dots[i] = dotInactive
		if i == m.nav.Index() {
			dots[i] = dotActive
		}
	}
	return " " + strings.Join(dots, " ")
}

func (m Model) renderStatus() string {
	lines := make([]string, 0, len(m.notices)+2)
	if line := m.renderOutcome(); line != "" {
		lines = append(lines, line)
	}
	for _, notice := range m.notices {
		lines = append(lines, warnStyle.Render(notice))
	}
	if m.status != "" {
		lines = append(lines, subtleStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderOutcome() string {
	switch {
	case m.exporting:
		return m.spinner.View() + " " + busyStyle.Render(describeProgress(m.job))
	case m.err != nil:
		if errors.Is(m.err, context.Canceled) {
			return subtleStyle.Render("export cancelled")
		}
		line := errorStyle.Render("export failed: " + m.err.Error())
		if hint := services.Hint(m.err); hint != "" {
			line += "\n" + subtleStyle.Render(hint)
		}
		return line
	case m.job != nil && m.job.State == export.StateSucceeded:
		if m.job.Result.FellBack {
			return warnStyle.Render(describeResult(*m.job))
		}
		return successStyle.Render(describeResult(*m.job))
	}
	return ""
}

func describeProgress(job *export.Job) string {
	if job == nil {
		return "starting export"
	}
	switch job.State {
	case export.StateCapturing:
		if job.Kind == export.KindVideo {
			return fmt.Sprintf("capturing %d/%d", job.Captured, len(job.PanelIDs))
		}
		return "capturing card"
	case export.StateEncoding:
		return fmt.Sprintf("encoding %d frames", job.Captured)
	case export.StateDispatching:
		return "saving " + job.Filename
	default:
		return job.State.String()
	}
}

func describeResult(job export.Job) string {
	elapsed := humanize.RelTime(job.StartedAt, job.FinishedAt, "", "")
	switch job.Result.Outcome {
	case dispatch.OutcomeShared:
		return fmt.Sprintf("shared %s (%s)", job.Filename, strings.TrimSpace(elapsed))
	case dispatch.OutcomeCancelled:
		return "share cancelled"
	case dispatch.OutcomeManualSave:
		return "opened " + job.Filename + " to save manually"
	default:
		if job.Result.FellBack {
			return "sharing failed, saved to " + job.Result.Path
		}
		return "saved " + job.Result.Path
	}
}

// cardLines flattens the text of a panel tree in paint order.
func cardLines(root *scene.Node) []string {
	var lines []string
	scene.Walk(root, func(n *scene.Node) bool {
		switch n.Kind {
		case scene.KindText:
			if text := strings.TrimSpace(n.Text); text != "" {
				lines = append(lines, text)
			}
		case scene.KindImage:
			if n.Image != nil && n.Image.FallbackLabel != "" {
				lines = append(lines, subtleStyle.Render("["+n.Image.FallbackLabel+"]"))
			}
		}
		return true
	})
	return lines
}
