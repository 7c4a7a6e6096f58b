package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// SubmitSpeechSynthesis fans one TTS job out per translated segment. Job ids
// are the 0-based segment indexes; the jobs run concurrently with no
// ordering guarantee, and ids are the only way to reassemble the audio in
// source order afterwards.
func (s *Stages) SubmitSpeechSynthesis(
	ctx context.Context,
	cfg JobConfig,
	segments []string,
	voiceSamplesURI string,
) ([]TTSJob, error) {
	if len(segments) == 0 {
		return nil, newStageError("tts", ErrValidation, "no translated segments to synthesize")
	}

	log := s.log.WithField("job_name", cfg.JobName)
	log.Info(fmt.Sprintf("preparing %d tts job payloads", len(segments)))

	jobs := make([]TTSJob, 0, len(segments))
	for i, segment := range segments {
		jobs = append(jobs, TTSJob{
			ID:              i,
			Text:            segment,
			VoiceSamplesURI: voiceSamplesURI,
			InputURI:        cfg.TTSJobURI(i).String(),
			DestinationURI:  cfg.TTSDestinationURI(i).String(),
			ModelID:         cfg.TTSModelID,
			InferenceParams: map[string]any{},
		})
	}

	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return nil, wrapStageError(err, "tts", ErrSubmission, "failed to encode tts job")
		}

		input := cfg.TTSJobURI(job.ID)
		if err := s.deps.Store.Put(ctx, input, payload); err != nil {
			return nil, wrapStageError(err, "tts", ErrSubmission, "failed to upload tts job payload")
		}

		log.Debug(fmt.Sprintf("invoking %s with %s", cfg.TTSEndpointName, job.InputURI))
		if err := s.deps.TTS.Invoke(ctx, cfg.TTSEndpointName, job.InputURI); err != nil {
			return nil, wrapStageError(err, "tts", ErrSubmission, "failed to invoke tts endpoint")
		}
	}

	return jobs, nil
}

// PollSpeechSynthesis is the fan-in check: COMPLETED only once every job's
// declared output exists. The caller owns the completed set; entries are
// only ever added, so a confirmed job is never re-verified. A failure
// marker on any output fails the whole batch.
func (s *Stages) PollSpeechSynthesis(
	ctx context.Context,
	cfg JobConfig,
	jobs []TTSJob,
	completed map[int]bool,
) (Status, error) {
	for _, job := range jobs {
		if completed[job.ID] {
			continue
		}

		destination, err := s3uri.Parse(job.DestinationURI)
		if err != nil {
			return StatusFailed, wrapStageError(err, "tts", ErrValidation, "invalid tts destination uri")
		}

		state, reason, err := s.probeOutput(ctx, destination)
		if err != nil {
			return StatusInProgress, wrapStageError(err, "tts", ErrExternal, "failed to probe tts output")
		}

		switch state {
		case JobSucceeded:
			completed[job.ID] = true
			s.log.WithField("job_name", cfg.JobName).
				Debug(fmt.Sprintf("completed %d out of %d tts jobs", len(completed), len(jobs)))
		case JobFailed:
			return StatusFailed, newStageError("tts", ErrExternal,
				fmt.Sprintf("tts job %d failed: %s", job.ID, reason))
		}
	}

	if len(completed) >= len(jobs) {
		return StatusCompleted, nil
	}
	return StatusInProgress, nil
}
