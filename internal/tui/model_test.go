package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wrapped/internal/dispatch"
	"wrapped/internal/export"
	"wrapped/internal/panels"
	"wrapped/internal/scene"
	"wrapped/internal/services"
	"wrapped/internal/surface"
)

type fakeNav struct {
	index, count int
	locked       bool
}

func (n *fakeNav) Index() int   { return n.index }
func (n *fakeNav) Count() int   { return n.count }
func (n *fakeNav) Locked() bool { return n.locked }
func (n *fakeNav) Next()        { n.GoTo(n.index + 1) }
func (n *fakeNav) Previous()    { n.GoTo(n.index - 1) }
func (n *fakeNav) GoTo(i int)   { n.index = min(max(i, 0), n.count-1) }

type fakeView struct{}

func (fakeView) Current() surface.Mounted {
	root := scene.Box("card", 0, 0, 100, 100, scene.Fill{},
		&scene.Node{Kind: scene.KindText, Text: "1,234 plays"},
		&scene.Node{Kind: scene.KindImage, Image: scene.NewImageSource("", "Azul", "#000")},
	)
	return surface.Mounted{Panel: panels.Descriptor{ID: "stats", Title: "Your Year"}, Root: root}
}

type fakeExporter struct {
	images []int
	videos int
	job    export.Job
	err    error
}

func (e *fakeExporter) ExportImage(_ context.Context, index int) (export.Job, error) {
	e.images = append(e.images, index)
	return e.job, e.err
}

func (e *fakeExporter) ExportVideo(context.Context) (export.Job, error) {
	e.videos++
	return e.job, e.err
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(nav *fakeNav, exp *fakeExporter) Model {
	return New(context.Background(), nav, fakeView{}, exp, NewFeed(), Options{Subject: "alice", Period: "2025"})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

// runExport executes the export command returned by Update, ignoring the
// spinner tick batched with it.
func runExport(t *testing.T, cmd tea.Cmd) exportDoneMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch command")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(exportDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no export command in batch")
	return exportDoneMsg{}
}

func TestArrowKeysNavigate(t *testing.T) {
	nav := &fakeNav{count: 3}
	m := newTestModel(nav, &fakeExporter{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if nav.index != 2 {
		t.Fatalf("expected clamp at 2, got %d", nav.index)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if nav.index != 1 {
		t.Fatalf("expected 1, got %d", nav.index)
	}
	_, _ = update(t, m, keyRunes("g"))
	if nav.index != 0 {
		t.Fatalf("expected first, got %d", nav.index)
	}
}

func TestNavigationIgnoredWhileLocked(t *testing.T) {
	nav := &fakeNav{count: 3, locked: true}
	m := newTestModel(nav, &fakeExporter{})
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if nav.index != 0 {
		t.Fatalf("expected locked carousel to stay, got %d", nav.index)
	}
}

func TestSaveKeyExportsVisiblePanel(t *testing.T) {
	nav := &fakeNav{index: 1, count: 3}
	exp := &fakeExporter{job: export.Job{
		Kind:     export.KindImage,
		State:    export.StateSucceeded,
		Filename: "card.png",
		Result:   dispatch.Result{Outcome: dispatch.OutcomeDownloaded, Path: "/tmp/out/card.png"},
	}}
	m := newTestModel(nav, exp)

	m, cmd := update(t, m, keyRunes("s"))
	if !m.exporting {
		t.Fatal("expected exporting after s")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if nav.index != 1 {
		t.Fatalf("navigation should be disabled while exporting, got %d", nav.index)
	}

	done := runExport(t, cmd)
	if len(exp.images) != 1 || exp.images[0] != 1 {
		t.Fatalf("expected export of panel 1, got %v", exp.images)
	}
	m, _ = update(t, m, done)
	if m.exporting {
		t.Fatal("expected export to finish")
	}
	if view := m.View(); !strings.Contains(view, "saved /tmp/out/card.png") {
		t.Fatalf("expected result in view, got:\n%s", view)
	}
}

func TestVideoKeyShowsFailureHint(t *testing.T) {
	exp := &fakeExporter{
		job: export.Job{Kind: export.KindVideo, State: export.StateFailed},
		err: services.Wrap(services.ErrEncoderUnavailable, "encode", "available", "encoder failed to initialize", errors.New("ffmpeg missing")),
	}
	m := newTestModel(&fakeNav{count: 2}, exp)

	m, cmd := update(t, m, keyRunes("v"))
	m, _ = update(t, m, runExport(t, cmd))
	if exp.videos != 1 {
		t.Fatalf("expected one video export, got %d", exp.videos)
	}
	view := m.View()
	if !strings.Contains(view, "export failed") {
		t.Fatalf("expected failure in view, got:\n%s", view)
	}
	if hint := services.Hint(exp.err); hint != "" && !strings.Contains(view, hint) {
		t.Fatalf("expected hint %q in view", hint)
	}
}

func TestQuitDuringExportWaitsForCompletion(t *testing.T) {
	exp := &fakeExporter{job: export.Job{State: export.StateFailed}, err: context.Canceled}
	m := newTestModel(&fakeNav{count: 2}, exp)

	m, cmd := update(t, m, keyRunes("s"))
	m, quit := update(t, m, keyRunes("q"))
	if quit != nil {
		t.Fatal("quit should wait for the running export")
	}
	_, quit = update(t, m, runExport(t, cmd))
	if quit == nil {
		t.Fatal("expected quit after export finished")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestFeedUpdatesProgress(t *testing.T) {
	feed := NewFeed()
	m := New(context.Background(), &fakeNav{count: 4}, fakeView{}, &fakeExporter{}, feed, Options{})
	m, _ = update(t, m, keyRunes("v"))

	feed.Job(export.Job{Kind: export.KindVideo, State: export.StateCapturing, PanelIDs: []string{"a", "b", "c", "d"}, Captured: 2})
	m, _ = update(t, m, waitForJob(feed.jobs)())
	if view := m.View(); !strings.Contains(view, "capturing 2/4") {
		t.Fatalf("expected progress in view, got:\n%s", view)
	}

	feed.Status(slog.LevelInfo, "ignored")
	m, _ = update(t, m, waitForStatus(feed.status)())
	if m.status != "" {
		t.Fatalf("info lines should not replace status, got %q", m.status)
	}
}

func TestViewShowsCardText(t *testing.T) {
	m := newTestModel(&fakeNav{count: 3}, &fakeExporter{})
	view := m.View()
	for _, want := range []string{"alice's 2025 Wrapped", "1 / 3", "Your Year", "1,234 plays", "[Azul]"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestShareFallbackIsReported(t *testing.T) {
	feed := NewFeed()
	exp := &fakeExporter{job: export.Job{
		Kind:     export.KindImage,
		State:    export.StateSucceeded,
		Filename: "a-2025-wrapped-1.png",
		Result:   dispatch.Result{Outcome: dispatch.OutcomeDownloaded, Path: "/out/a-2025-wrapped-1.png", FellBack: true},
	}}
	m := New(context.Background(), &fakeNav{count: 2}, fakeView{}, exp, feed, Options{})

	m, cmd := update(t, m, keyRunes("s"))
	feed.Status(slog.LevelWarn, "share command failed")
	m, _ = update(t, m, waitForStatus(feed.status)())
	feed.Alert(context.Background(), "Sharing failed, so a-2025-wrapped-1.png was saved to /out instead.")
	m, _ = update(t, m, waitForStatus(feed.status)())
	m, _ = update(t, m, runExport(t, cmd))

	view := m.View()
	for _, want := range []string{
		"sharing failed, saved to /out/a-2025-wrapped-1.png",
		"was saved to /out instead",
		"share command failed",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestFeedWriterCarriesManualSaveInstructions(t *testing.T) {
	feed := NewFeed()
	exp := &fakeExporter{job: export.Job{
		Kind:     export.KindImage,
		State:    export.StateSucceeded,
		Filename: "card.png",
		Result:   dispatch.Result{Outcome: dispatch.OutcomeManualSave, Path: "/tmp/view/card.png"},
	}}
	m := New(context.Background(), &fakeNav{count: 2}, fakeView{}, exp, feed, Options{})

	m, cmd := update(t, m, keyRunes("s"))
	if _, err := feed.Write([]byte("Your image is open in the viewer.\n\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m, _ = update(t, m, waitForStatus(feed.status)())
	m, _ = update(t, m, runExport(t, cmd))

	view := m.View()
	if !strings.Contains(view, "opened card.png to save manually") || !strings.Contains(view, "Your image is open in the viewer.") {
		t.Fatalf("expected manual save result and instructions, got:\n%s", view)
	}
	if len(m.notices) != 1 {
		t.Fatalf("expected one notice, got %v", m.notices)
	}

	// A new export clears notices from the previous one.
	m, _ = update(t, m, keyRunes("s"))
	if len(m.notices) != 0 {
		t.Fatalf("expected notices cleared, got %v", m.notices)
	}
}
