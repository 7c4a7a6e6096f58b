package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/pipeline"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RunsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:            uuid.NewString(),
		JobName:       "demo",
		DescriptorKey: "inputs/jobs/demo.json",
		State:         pipeline.StateTranscribing,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertRun(ctx, run))

	all, err := store.LoadRuns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, run.ID, all[0].ID)
	assert.Equal(t, run.JobName, all[0].JobName)
	assert.Equal(t, pipeline.StateTranscribing, all[0].State)
}

func TestSQLiteStore_UpsertUpdatesState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:            uuid.NewString(),
		JobName:       "demo",
		DescriptorKey: "inputs/jobs/demo.json",
		State:         pipeline.StateTranscribing,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.UpsertRun(ctx, run))

	run.State = pipeline.StateFailed
	run.Error = "backend job reported failure"
	run.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpsertRun(ctx, run))

	got, err := store.FindRunByJobName(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateFailed, got.State)
	assert.Equal(t, "backend job reported failure", got.Error)
}

func TestSQLiteStore_FindMissingRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.FindRunByJobName(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:            uuid.NewString(),
		JobName:       "demo",
		DescriptorKey: "inputs/jobs/demo.json",
		State:         pipeline.StateDone,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.UpsertRun(ctx, run))
	require.NoError(t, store.DeleteRun(ctx, run.ID))

	_, err := store.FindRunByJobName(ctx, "demo")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
