package tui

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"wrapped/internal/export"
)

const feedBuffer = 64

// Feed carries export snapshots and status lines from worker goroutines into
// the program. Sends never block; intermediate updates are dropped when the
// viewer falls behind.
type Feed struct {
	jobs   chan export.Job
	status chan statusMsg
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		jobs:   make(chan export.Job, feedBuffer),
		status: make(chan statusMsg, feedBuffer),
	}
}

// Job is an export observer.
func (f *Feed) Job(job export.Job) {
	select {
	case f.jobs <- job:
	default:
	}
}

// Status is a logging.StatusFunc.
func (f *Feed) Status(level slog.Level, msg string) {
	select {
	case f.status <- statusMsg{level: level, text: msg}:
	default:
	}
}

// Alert is a dispatch.Alerter. Alerts stay on the status line until the
// next export starts.
func (f *Feed) Alert(_ context.Context, message string) {
	f.notice(message)
}

// Write takes the dispatcher's plain output, such as manual save
// instructions, one notice per line.
func (f *Feed) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			f.notice(line)
		}
	}
	return len(p), nil
}

func (f *Feed) notice(text string) {
	select {
	case f.status <- statusMsg{level: slog.LevelWarn, text: text, notice: true}:
	default:
	}
}

type jobMsg export.Job

type statusMsg struct {
	level  slog.Level
	text   string
	notice bool
}

func waitForJob(ch <-chan export.Job) tea.Cmd {
	return func() tea.Msg {
		job, ok := <-ch
		if !ok {
			return nil
		}
		return jobMsg(job)
	}
}

func waitForStatus(ch <-chan statusMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
