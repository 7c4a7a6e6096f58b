package pipeline

import (
	"context"
	"fmt"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// Backend-native transcription statuses.
const (
	transcribeStatusQueued     = "QUEUED"
	transcribeStatusInProgress = "IN_PROGRESS"
	transcribeStatusCompleted  = "COMPLETED"
	transcribeStatusFailed     = "FAILED"
)

// SubmitTranscription starts one transcription job for the run's source
// media. The job name embeds the source file stem and a timestamp so
// repeated runs on the same file never collide.
func (s *Stages) SubmitTranscription(ctx context.Context, cfg JobConfig) (TranscriptionJob, error) {
	source, err := s3uri.Parse(cfg.SourceFileURI)
	if err != nil {
		return TranscriptionJob{}, wrapStageError(err, "transcribe", ErrValidation, "invalid source file uri")
	}

	jobName := fmt.Sprintf("%s-%d-job", source.Stem(), s.now().Unix())

	s.log.WithField("job_name", cfg.JobName).
		WithField("transcription_job_name", jobName).
		Info("starting transcription job")

	err = s.deps.Transcriber.StartJob(ctx, jobName, cfg.SourceFileURI, cfg.MediaFormat, cfg.TranscribeSourceLanguage)
	if err != nil {
		return TranscriptionJob{}, wrapStageError(err, "transcribe", ErrSubmission, "failed to start transcription job")
	}

	return TranscriptionJob{
		JobName: jobName,
		Status:  StatusInProgress,
	}, nil
}

// PollTranscription maps the backend's native status onto the pipeline
// vocabulary. Pure query, safe to call unboundedly.
func (s *Stages) PollTranscription(ctx context.Context, job TranscriptionJob) (TranscriptionJob, error) {
	status, transcriptURI, err := s.deps.Transcriber.JobStatus(ctx, job.JobName)
	if err != nil {
		return job, wrapStageError(err, "transcribe", ErrExternal, "failed to query transcription job")
	}

	updated := job
	updated.TranscriptURI = transcriptURI

	switch status {
	case transcribeStatusCompleted:
		updated.Status = StatusCompleted
	case transcribeStatusFailed:
		updated.Status = StatusFailed
	case transcribeStatusQueued, transcribeStatusInProgress:
		updated.Status = StatusInProgress
	default:
		updated.Status = StatusInProgress
	}

	s.log.WithField("transcription_job_name", job.JobName).
		WithField("job_status", updated.Status).
		Debug("polled transcription job")

	return updated, nil
}
