package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/bpradana/weave"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/config"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/logger"
)

// RunState names the orchestrator's position in the pipeline. The two
// parallel branch states are active simultaneously between transcription
// and synthesis.
type RunState string

const (
	StateTranscribing    RunState = "TRANSCRIBING"
	StateTranslating     RunState = "TRANSLATING"
	StateExtractingVoice RunState = "EXTRACTING_VOICE"
	StateSynthesizing    RunState = "SYNTHESIZING"
	StateLipSyncing      RunState = "LIP_SYNCING"
	StateDone            RunState = "DONE"
	StateFailed          RunState = "FAILED"
)

var errStillInProgress = errors.New("job still in progress")

// Orchestrator drives one pipeline run through the stage handlers: submit,
// wait-and-poll on a fixed interval, branch on the reported status, and
// fail the whole run on any fatal stage error.
type Orchestrator struct {
	stages  *Stages
	cfg     config.PipelineConfig
	log     *logrus.Entry
	onState func(RunState)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStateListener registers a callback invoked on every state transition,
// used to keep the run record current.
func WithStateListener(fn func(RunState)) Option {
	return func(o *Orchestrator) {
		o.onState = fn
	}
}

func NewOrchestrator(
	stages *Stages,
	cfg config.PipelineConfig,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		stages: stages,
		cfg:    cfg,
		log:    log.Entry,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pipeline run to completion. It returns nil once the
// dubbed output video exists, or the first fatal error. The whole run is
// bounded by a wall-clock timeout; abandoned backend jobs are not rescinded.
func (o *Orchestrator) Run(ctx context.Context, cfg JobConfig) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	log := o.log.WithField("job_name", cfg.JobName)

	if err := cfg.Validate(); err != nil {
		o.transition(log, StateFailed)
		return err
	}

	o.transition(log, StateTranscribing)
	tjob, err := o.stages.SubmitTranscription(ctx, cfg)
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	err = o.pollLoop(ctx, "transcribe", func(ctx context.Context) (Status, error) {
		updated, err := o.stages.PollTranscription(ctx, tjob)
		if err != nil {
			return StatusFailed, err
		}
		tjob = updated
		return updated.Status, nil
	})
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	// Translation and voice-sample extraction branch off the same completed
	// transcription and run concurrently; neither sees the other's output.
	// The graph joins both before synthesis may start.
	o.transition(log, StateTranslating)
	o.transition(log, StateExtractingVoice)

	graph := weave.NewGraph()
	translateTask, err := weave.AddTask(graph, "translate",
		func(ctx context.Context, _ weave.DependencyResolver) (TranslationResult, error) {
			return o.stages.Translate(ctx, cfg, tjob)
		})
	if err != nil {
		o.transition(log, StateFailed)
		return fmt.Errorf("failed to build pipeline graph: %w", err)
	}
	samplesTask, err := weave.AddTask(graph, "voice_samples",
		func(ctx context.Context, _ weave.DependencyResolver) (VoiceSamplesResult, error) {
			return o.stages.ExtractVoiceSamples(ctx, cfg, tjob)
		})
	if err != nil {
		o.transition(log, StateFailed)
		return fmt.Errorf("failed to build pipeline graph: %w", err)
	}

	results, _, err := graph.Run(ctx)
	if err != nil {
		o.transition(log, StateFailed)
		return o.branchError(results, translateTask, samplesTask, err)
	}

	translation, err := translateTask.Value(results)
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}
	voiceSamples, err := samplesTask.Value(results)
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	o.transition(log, StateSynthesizing)
	ttsJobs, err := o.stages.SubmitSpeechSynthesis(ctx, cfg, translation.Segments, voiceSamples.URI)
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	completed := make(map[int]bool)
	err = o.pollLoop(ctx, "tts", func(ctx context.Context) (Status, error) {
		return o.stages.PollSpeechSynthesis(ctx, cfg, ttsJobs, completed)
	})
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	o.transition(log, StateLipSyncing)
	retalkingJob, err := o.stages.SubmitLipSync(ctx, cfg, ttsJobs)
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	err = o.pollLoop(ctx, "retalking", func(ctx context.Context) (Status, error) {
		return o.stages.PollLipSync(ctx, cfg, retalkingJob)
	})
	if err != nil {
		o.transition(log, StateFailed)
		return err
	}

	o.transition(log, StateDone)
	log.Info("pipeline run completed")
	return nil
}

// pollLoop submits nothing itself; it re-polls a stage on a fixed interval
// until the stage reports a terminal status. A per-loop attempt cap is
// optional; without one the run timeout is the only bound.
func (o *Orchestrator) pollLoop(
	ctx context.Context,
	stage string,
	poll func(context.Context) (Status, error),
) error {
	var policy backoff.BackOff = backoff.WithContext(
		backoff.NewConstantBackOff(o.cfg.PollInterval), ctx)
	if o.cfg.MaxPollAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(o.cfg.MaxPollAttempts))
	}

	operation := func() error {
		status, err := poll(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch status {
		case StatusCompleted:
			return nil
		case StatusFailed:
			return backoff.Permanent(newStageError(stage, ErrExternal, "backend job reported failure"))
		default:
			return errStillInProgress
		}
	}

	err := backoff.Retry(operation, policy)
	if err == nil {
		return nil
	}
	if errors.Is(err, errStillInProgress) || errors.Is(err, context.DeadlineExceeded) {
		return wrapStageError(err, stage, ErrTimeout, "gave up waiting for job completion")
	}
	return err
}

// branchError prefers the concrete stage error of a failed branch over the
// executor's wrapped dependency error.
func (o *Orchestrator) branchError(
	results *weave.Results,
	translateTask *weave.Handle[TranslationResult],
	samplesTask *weave.Handle[VoiceSamplesResult],
	fallback error,
) error {
	if results != nil {
		if err := results.Error(translateTask); err != nil {
			return err
		}
		if err := results.Error(samplesTask); err != nil {
			return err
		}
	}
	return fallback
}

func (o *Orchestrator) transition(log *logrus.Entry, state RunState) {
	log.WithField("state", state).Info("pipeline state transition")
	if o.onState != nil {
		o.onState(state)
	}
}
