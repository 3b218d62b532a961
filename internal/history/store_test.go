package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapped/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginAndSucceed(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Second)
	require.NoError(t, store.Begin(ctx, history.Record{
		ID:        "job-1",
		Kind:      "video",
		Subject:   "alice",
		Period:    "2025",
		Stage:     "capturing",
		PanelIDs:  []string{"stats", "most-played", "mechanics"},
		StartedAt: started,
	}))

	require.NoError(t, store.SetStage(ctx, "job-1", "encoding"))
	require.NoError(t, store.Succeed(ctx, "job-1", history.Completion{
		Outcome:        "downloaded",
		Filename:       "alice-2025-wrapped.mp4",
		OutputPath:     "/out/alice-2025-wrapped.mp4",
		SizeBytes:      1234,
		FellBack:       true,
		SettleTimeouts: 1,
	}))

	rec, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, history.StatusSucceeded, rec.Status)
	assert.Equal(t, "encoding", rec.Stage)
	assert.Equal(t, []string{"stats", "most-played", "mechanics"}, rec.PanelIDs)
	assert.Equal(t, 3, rec.PanelCount())
	assert.Equal(t, "downloaded", rec.Outcome)
	assert.Equal(t, 1234, rec.SizeBytes)
	assert.True(t, rec.FellBack)
	assert.Equal(t, 1, rec.SettleTimeouts)
	require.NotNil(t, rec.FinishedAt)
	assert.True(t, rec.Duration() > 0)
	assert.True(t, rec.Status.IsTerminal())
}

func TestFailRecordsStageAndMessage(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, history.Record{ID: "job-2", Kind: "image", Subject: "bob", Period: "2025"}))
	require.NoError(t, store.Fail(ctx, "job-2", "capturing", errors.New("capture backend error")))

	rec, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Equal(t, "capturing", rec.Stage)
	assert.Equal(t, "capture backend error", rec.ErrorMessage)
}

func TestTerminalRecordsAreImmutable(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, history.Record{ID: "job-3", Kind: "image"}))
	require.NoError(t, store.Succeed(ctx, "job-3", history.Completion{Outcome: "shared"}))

	err := store.Fail(ctx, "job-3", "dispatching", errors.New("late"))
	require.ErrorIs(t, err, history.ErrNotFound)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, history.ErrNotFound)
}

func TestBeginRequiresIdentity(t *testing.T) {
	store := openStore(t)
	require.Error(t, store.Begin(context.Background(), history.Record{Kind: "image"}))
	require.Error(t, store.Begin(context.Background(), history.Record{ID: "x"}))
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Begin(ctx, history.Record{
			ID:        id,
			Kind:      "image",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b", limited[1].ID)
}

func TestMarkInterruptedAndSummarize(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, history.Record{ID: "ok", Kind: "image"}))
	require.NoError(t, store.Succeed(ctx, "ok", history.Completion{SizeBytes: 100}))
	require.NoError(t, store.Begin(ctx, history.Record{ID: "bad", Kind: "video"}))
	require.NoError(t, store.Fail(ctx, "bad", "encoding", errors.New("ffmpeg exited 1")))
	require.NoError(t, store.Begin(ctx, history.Record{ID: "stuck", Kind: "video"}))

	touched, err := store.MarkInterrupted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, touched)

	rec, err := store.Get(ctx, "stuck")
	require.NoError(t, err)
	assert.Equal(t, history.StatusInterrupted, rec.Status)
	assert.Equal(t, history.InterruptedReason, rec.ErrorMessage)

	summary, err := store.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, history.Summary{Total: 3, Succeeded: 1, Failed: 1, Interrupted: 1, TotalBytes: 100}, summary)
}

func TestPruneKeepsRunningJobs(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, store.Begin(ctx, history.Record{ID: "old-done", Kind: "image", StartedAt: old}))
	require.NoError(t, store.Succeed(ctx, "old-done", history.Completion{}))
	require.NoError(t, store.Begin(ctx, history.Record{ID: "old-running", Kind: "image", StartedAt: old}))
	require.NoError(t, store.Begin(ctx, history.Record{ID: "fresh", Kind: "image"}))
	require.NoError(t, store.Succeed(ctx, "fresh", history.Completion{}))

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Begin(context.Background(), history.Record{ID: "persisted", Kind: "image"}))
	require.NoError(t, store.Close())

	reopened, err := history.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())
	_, err = reopened.Get(context.Background(), "persisted")
	require.NoError(t, err)
}
