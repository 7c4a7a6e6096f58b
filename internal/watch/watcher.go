package watch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/config"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/logger"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/persistence"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/pipeline"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/storage"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// Runner executes one dubbing run to completion.
type Runner interface {
	Run(ctx context.Context, cfg pipeline.JobConfig) error
}

// RunnerFactory builds the runner for one run, binding the state callback
// that keeps the run record current.
type RunnerFactory func(onState func(pipeline.RunState)) Runner

// RunStore is the run-record persistence the watcher needs.
type RunStore interface {
	UpsertRun(ctx context.Context, run *persistence.Run) error
	FindRunByJobName(ctx context.Context, jobName string) (*persistence.Run, error)
}

// Watcher scans the job descriptor prefix on a cron schedule and starts one
// pipeline run per descriptor it has not seen before. The run record is the
// dedupe authority, so a descriptor left in place does not restart its run
// on the next sweep.
type Watcher struct {
	store   storage.Store
	runs    RunStore
	newRun  RunnerFactory
	cfg     config.WatchConfig
	cron    *cron.Cron
	log     *logrus.Entry
	group   singleflight.Group
	now     func() time.Time
	started sync.WaitGroup
}

func New(
	store storage.Store,
	runs RunStore,
	newRun RunnerFactory,
	cfg config.WatchConfig,
	c *cron.Cron,
	log *logger.Logger,
) *Watcher {
	return &Watcher{
		store:  store,
		runs:   runs,
		newRun: newRun,
		cfg:    cfg,
		cron:   c,
		log:    log.Entry,
		now:    time.Now,
	}
}

// Schedule registers the sweep on the cron. Overlapping triggers collapse
// into one sweep; a sweep blocks until every run it started finishes, so a
// long run never stacks a duplicate.
func (w *Watcher) Schedule(ctx context.Context) error {
	sweep := func() {
		_, _, _ = w.group.Do("scan", func() (any, error) {
			if err := w.Scan(ctx); err != nil {
				w.log.WithError(err).Error("descriptor sweep failed")
			}
			return nil, nil
		})
	}
	_, err := w.cron.AddFunc(w.cfg.CronExpr, sweep)
	return err
}

// Scan lists the descriptor prefix, starts a run for every new descriptor,
// and waits for the started runs to finish. Runs execute concurrently.
func (w *Watcher) Scan(ctx context.Context) error {
	keys, err := w.store.List(ctx, w.cfg.Bucket, w.cfg.JobsPrefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		if err := w.startRun(ctx, key); err != nil {
			w.log.WithError(err).WithField("descriptor", key).Warn("skipping descriptor")
		}
	}

	w.started.Wait()
	return nil
}

func (w *Watcher) startRun(ctx context.Context, key string) error {
	body, err := w.store.Get(ctx, s3uri.URI{Bucket: w.cfg.Bucket, Key: key})
	if err != nil {
		return err
	}

	var jobCfg pipeline.JobConfig
	if err := json.Unmarshal(body, &jobCfg); err != nil {
		return err
	}
	if jobCfg.JobName == "" {
		return errors.New("descriptor has no job_name")
	}

	_, err = w.runs.FindRunByJobName(ctx, jobCfg.JobName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, persistence.ErrRunNotFound) {
		return err
	}

	record := &persistence.Run{
		ID:            uuid.NewString(),
		JobName:       jobCfg.JobName,
		DescriptorKey: key,
		State:         pipeline.StateTranscribing,
		CreatedAt:     w.now(),
		UpdatedAt:     w.now(),
	}
	if err := w.runs.UpsertRun(ctx, record); err != nil {
		return err
	}

	w.log.WithField("job_name", jobCfg.JobName).Info("starting pipeline run")

	w.started.Add(1)
	go func() {
		defer w.started.Done()
		w.execute(ctx, record, jobCfg)
	}()
	return nil
}

func (w *Watcher) execute(ctx context.Context, record *persistence.Run, jobCfg pipeline.JobConfig) {
	runner := w.newRun(func(state pipeline.RunState) {
		record.State = state
		record.UpdatedAt = w.now()
		if err := w.runs.UpsertRun(ctx, record); err != nil {
			w.log.WithError(err).Warn("failed to update run record")
		}
	})

	if err := runner.Run(ctx, jobCfg); err != nil {
		record.State = pipeline.StateFailed
		record.Error = err.Error()
		record.UpdatedAt = w.now()
		if uerr := w.runs.UpsertRun(ctx, record); uerr != nil {
			w.log.WithError(uerr).Warn("failed to update run record")
		}
		w.log.WithError(err).WithField("job_name", jobCfg.JobName).Error("pipeline run failed")
		return
	}
	w.log.WithField("job_name", jobCfg.JobName).Info("pipeline run succeeded")
}
