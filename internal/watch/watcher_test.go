package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/config"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/logger"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/persistence"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/pipeline"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/storage"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

type memRunStore struct {
	mu   sync.Mutex
	runs map[string]*persistence.Run
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: make(map[string]*persistence.Run)}
}

func (m *memRunStore) UpsertRun(_ context.Context, run *persistence.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *run
	m.runs[run.JobName] = &stored
	return nil
}

func (m *memRunStore) FindRunByJobName(_ context.Context, jobName string) (*persistence.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[jobName]
	if !ok {
		return nil, persistence.ErrRunNotFound
	}
	stored := *run
	return &stored, nil
}

type recordingRunner struct {
	mu      sync.Mutex
	runs    []pipeline.JobConfig
	runErr  error
	onState func(pipeline.RunState)
}

func (r *recordingRunner) Run(_ context.Context, cfg pipeline.JobConfig) error {
	r.mu.Lock()
	r.runs = append(r.runs, cfg)
	r.mu.Unlock()
	if r.runErr != nil {
		r.onState(pipeline.StateFailed)
		return r.runErr
	}
	r.onState(pipeline.StateDone)
	return nil
}

func testLogger() *logger.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &logger.Logger{Entry: logrus.NewEntry(log)}
}

func watchConfig() config.WatchConfig {
	return config.WatchConfig{
		Bucket:     "dub-bucket",
		JobsPrefix: "inputs/jobs",
		CronExpr:   "* * * * *",
	}
}

func seedDescriptor(t *testing.T, store storage.Store, key, jobName string) {
	t.Helper()
	body, err := json.Marshal(pipeline.JobConfig{JobName: jobName, Bucket: "dub-bucket"})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(),
		s3uri.URI{Bucket: "dub-bucket", Key: key}, body))
}

func TestScan_StartsRunPerDescriptor(t *testing.T) {
	store := storage.NewMemoryStore()
	runs := newMemRunStore()
	seedDescriptor(t, store, "inputs/jobs/alpha.json", "alpha")
	seedDescriptor(t, store, "inputs/jobs/beta.json", "beta")

	runner := &recordingRunner{}
	factory := func(onState func(pipeline.RunState)) Runner {
		runner.onState = onState
		return runner
	}

	w := New(store, runs, factory, watchConfig(), nil, testLogger())
	require.NoError(t, w.Scan(context.Background()))

	require.Len(t, runner.runs, 2)
	names := []string{runner.runs[0].JobName, runner.runs[1].JobName}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)

	record, err := runs.FindRunByJobName(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateDone, record.State)
	assert.Equal(t, "inputs/jobs/alpha.json", record.DescriptorKey)
}

func TestScan_DeduplicatesAcrossSweeps(t *testing.T) {
	store := storage.NewMemoryStore()
	runs := newMemRunStore()
	seedDescriptor(t, store, "inputs/jobs/alpha.json", "alpha")

	runner := &recordingRunner{}
	factory := func(onState func(pipeline.RunState)) Runner {
		runner.onState = onState
		return runner
	}

	w := New(store, runs, factory, watchConfig(), nil, testLogger())
	require.NoError(t, w.Scan(context.Background()))
	require.NoError(t, w.Scan(context.Background()))

	assert.Len(t, runner.runs, 1)
}

func TestScan_RecordsFailedRun(t *testing.T) {
	store := storage.NewMemoryStore()
	runs := newMemRunStore()
	seedDescriptor(t, store, "inputs/jobs/alpha.json", "alpha")

	runner := &recordingRunner{runErr: fmt.Errorf("transcription backend down")}
	factory := func(onState func(pipeline.RunState)) Runner {
		runner.onState = onState
		return runner
	}

	w := New(store, runs, factory, watchConfig(), nil, testLogger())
	require.NoError(t, w.Scan(context.Background()))

	record, err := runs.FindRunByJobName(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateFailed, record.State)
	assert.Equal(t, "transcription backend down", record.Error)
}

func TestScan_SkipsMalformedDescriptors(t *testing.T) {
	store := storage.NewMemoryStore()
	runs := newMemRunStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx,
		s3uri.URI{Bucket: "dub-bucket", Key: "inputs/jobs/broken.json"}, []byte("{not json")))
	require.NoError(t, store.Put(ctx,
		s3uri.URI{Bucket: "dub-bucket", Key: "inputs/jobs/readme.txt"}, []byte("ignore me")))
	seedDescriptor(t, store, "inputs/jobs/noname.json", "")
	seedDescriptor(t, store, "inputs/jobs/good.json", "good")

	runner := &recordingRunner{}
	factory := func(onState func(pipeline.RunState)) Runner {
		runner.onState = onState
		return runner
	}

	w := New(store, runs, factory, watchConfig(), nil, testLogger())
	require.NoError(t, w.Scan(ctx))

	require.Len(t, runner.runs, 1)
	assert.Equal(t, "good", runner.runs[0].JobName)
}
