package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/media"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/transcript"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// Voice sample policy window: long enough to capture timbre, short enough
// to avoid silence and noise. Lower bound exclusive, upper bound inclusive.
const (
	voiceSampleMinSeconds = 2.0
	voiceSampleMaxSeconds = 10.0
)

// selectVoiceSamples filters sentence segments to the policy window.
func selectVoiceSamples(sentences []transcript.Sentence) []transcript.Sentence {
	selected := make([]transcript.Sentence, 0, len(sentences))
	for _, s := range sentences {
		if s.Duration > voiceSampleMinSeconds && s.Duration <= voiceSampleMaxSeconds {
			selected = append(selected, s)
		}
	}
	return selected
}

// ExtractVoiceSamples slices the source audio at the sentence boundaries of
// the transcript and persists each qualifying clip as its own object under
// the run's voice_samples prefix. Zero qualifying clips fails the run:
// speech synthesis needs at least one voice reference.
func (s *Stages) ExtractVoiceSamples(ctx context.Context, cfg JobConfig, tjob TranscriptionJob) (VoiceSamplesResult, error) {
	log := s.log.WithField("job_name", cfg.JobName)

	doc, err := s.fetchTranscript(ctx, tjob.TranscriptURI)
	if err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to retrieve transcript")
	}

	sentences, err := doc.Sentences()
	if err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrValidation, "failed to segment transcript")
	}

	selected := selectVoiceSamples(sentences)
	log.Info(fmt.Sprintf("selected %d voice samples", len(selected)))
	if len(selected) == 0 {
		return VoiceSamplesResult{}, newStageError("voice_samples", ErrValidation,
			"voice sample extraction failed: no suitable voice samples found")
	}

	source, err := s3uri.Parse(cfg.SourceFileURI)
	if err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrValidation, "invalid source file uri")
	}

	tmpDir, err := os.MkdirTemp("", "voice-samples-")
	if err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	videoPath := filepath.Join(tmpDir, source.Base())
	if err := s.deps.Store.Download(ctx, source, videoPath); err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to download source media")
	}

	audioPath := filepath.Join(tmpDir, "source.wav")
	if err := s.deps.Converter.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to extract source audio")
	}

	sourceAudio, err := media.ReadWAV(audioPath)
	if err != nil {
		return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to decode source audio")
	}

	samplesURI := cfg.VoiceSamplesURI()
	for i, sentence := range selected {
		clip := media.Slice(sourceAudio, sentence.StartTime*1000, sentence.EndTime*1000)

		clipPath := filepath.Join(tmpDir, fmt.Sprintf("%d.wav", i))
		if err := media.WriteWAV(clipPath, clip); err != nil {
			return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to encode voice sample")
		}

		target := samplesURI.Join(fmt.Sprintf("%d.wav", i))
		log.Debug(fmt.Sprintf("uploading voice sample %s", target))
		if err := s.deps.Store.Upload(ctx, clipPath, target); err != nil {
			return VoiceSamplesResult{}, wrapStageError(err, "voice_samples", ErrExternal, "failed to upload voice sample")
		}
	}

	log.Info("completed voice sample extraction")
	return VoiceSamplesResult{
		URI:   samplesURI.String(),
		Count: len(selected),
	}, nil
}
