package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-audio/audio"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/media"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// tempoFactor is the uniform speed ratio that makes the dubbed track's
// duration match the original audio. Applied as an atempo filter: a dubbed
// track longer than the source plays faster, and vice versa.
func tempoFactor(sourceSeconds, dubbedSeconds float64) float64 {
	return dubbedSeconds / sourceSeconds
}

// SubmitLipSync concatenates the synthesized segments in id order, re-times
// the result to the original video's duration, uploads it, and submits the
// single lip-sync job of the run.
func (s *Stages) SubmitLipSync(ctx context.Context, cfg JobConfig, jobs []TTSJob) (RetalkingJob, error) {
	log := s.log.WithField("job_name", cfg.JobName)

	tmpDir, err := os.MkdirTemp("", "retalking-")
	if err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	// Concatenation is order-sensitive: segment order is recoverable only
	// through the job ids, never through completion order.
	ordered := make([]TTSJob, len(jobs))
	copy(ordered, jobs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	buffers := make([]*audio.IntBuffer, 0, len(ordered))
	for _, job := range ordered {
		destination, err := s3uri.Parse(job.DestinationURI)
		if err != nil {
			return RetalkingJob{}, wrapStageError(err, "retalking", ErrValidation, "invalid tts destination uri")
		}

		segmentPath := filepath.Join(tmpDir, destination.Base())
		log.Debug(fmt.Sprintf("downloading %s", job.DestinationURI))
		if err := s.deps.Store.Download(ctx, destination, segmentPath); err != nil {
			return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to download tts segment")
		}

		buf, err := media.ReadWAV(segmentPath)
		if err != nil {
			return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to decode tts segment")
		}
		buffers = append(buffers, buf)
	}

	dubbed, err := media.Concat(buffers...)
	if err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrValidation, "failed to concatenate tts segments")
	}

	dubbedPath := filepath.Join(tmpDir, cfg.JobName+".wav")
	if err := media.WriteWAV(dubbedPath, dubbed); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to write dubbed audio")
	}

	// Lip sync needs duration parity between the dubbed audio and the
	// original video, so measure the source audio and re-time the dub.
	source, err := s3uri.Parse(cfg.SourceFileURI)
	if err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrValidation, "invalid source file uri")
	}

	videoPath := filepath.Join(tmpDir, source.Base())
	if err := s.deps.Store.Download(ctx, source, videoPath); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to download source media")
	}

	sourceAudioPath := filepath.Join(tmpDir, "source.wav")
	if err := s.deps.Converter.ExtractAudio(ctx, videoPath, sourceAudioPath); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to extract source audio")
	}

	sourceAudio, err := media.ReadWAV(sourceAudioPath)
	if err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to decode source audio")
	}

	factor := tempoFactor(media.DurationSeconds(sourceAudio), media.DurationSeconds(dubbed))
	log.Info(fmt.Sprintf("calculated tempo adjustment factor: %g", factor))

	adjustedPath := filepath.Join(tmpDir, cfg.JobName+"-dubbed-tempo.wav")
	if err := s.deps.Converter.AdjustTempo(ctx, dubbedPath, adjustedPath, factor); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to adjust tempo")
	}

	combinedURI := cfg.CombinedAudioURI()
	log.Info(fmt.Sprintf("uploading adjusted audio to %s", combinedURI))
	if err := s.deps.Store.Upload(ctx, adjustedPath, combinedURI); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrExternal, "failed to upload adjusted audio")
	}

	jobURI := cfg.RetalkingJobURI()
	retalkingJob := RetalkingJob{
		InputURI:        jobURI.String(),
		InputVideoURI:   cfg.SourceFileURI,
		InputAudioURI:   combinedURI.String(),
		OutputVideoURI:  cfg.DestinationURI,
		InferenceParams: map[string]any{},
	}

	payload, err := json.Marshal(retalkingJob)
	if err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrSubmission, "failed to encode retalking job")
	}
	if err := s.deps.Store.Put(ctx, jobURI, payload); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrSubmission, "failed to upload retalking job")
	}

	log.Info(fmt.Sprintf("invoking %s", cfg.RetalkingEndpointName))
	if err := s.deps.Retalking.Invoke(ctx, cfg.RetalkingEndpointName, retalkingJob.InputURI); err != nil {
		return RetalkingJob{}, wrapStageError(err, "retalking", ErrSubmission, "failed to invoke retalking endpoint")
	}

	return retalkingJob, nil
}

// PollLipSync checks the declared output video. Same existence contract as
// the synthesis fan-in, but for a single job.
func (s *Stages) PollLipSync(ctx context.Context, cfg JobConfig, job RetalkingJob) (Status, error) {
	output, err := s3uri.Parse(job.OutputVideoURI)
	if err != nil {
		return StatusFailed, wrapStageError(err, "retalking", ErrValidation, "invalid output video uri")
	}

	state, reason, err := s.probeOutput(ctx, output)
	if err != nil {
		return StatusInProgress, wrapStageError(err, "retalking", ErrExternal, "failed to probe retalking output")
	}

	switch state {
	case JobSucceeded:
		s.log.WithField("job_name", cfg.JobName).Info(fmt.Sprintf("found %s", job.OutputVideoURI))
		return StatusCompleted, nil
	case JobFailed:
		return StatusFailed, newStageError("retalking", ErrExternal,
			fmt.Sprintf("retalking job failed: %s", reason))
	default:
		return StatusInProgress, nil
	}
}
