package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// Status is the vocabulary the orchestrator routes on. Backend-native
// statuses are mapped into it by the poll handlers.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// LanguageAuto asks the translation stage to detect the source language
// from the transcript instead of trusting the descriptor.
const LanguageAuto = "auto"

// JobConfig is the immutable per-run descriptor. A run starts when a JSON
// object with these fields appears under the job descriptor prefix.
type JobConfig struct {
	JobName                  string `json:"job_name"`
	Bucket                   string `json:"bucket"`
	PrefixInputs             string `json:"prefix_inputs"`
	PrefixOutputs            string `json:"prefix_outputs"`
	SourceFileURI            string `json:"source_file_s3_uri"`
	DestinationURI           string `json:"destination_s3_uri"`
	MediaFormat              string `json:"media_format"`
	TranscribeSourceLanguage string `json:"transcribe_source_language_code"`
	TranslateSourceLanguage  string `json:"translate_source_language_code"`
	TranslateTargetLanguage  string `json:"translate_target_language_code"`
	TTSModelID               string `json:"tts_model_id"`
	TTSEndpointName          string `json:"tts_endpoint_name"`
	RetalkingEndpointName    string `json:"retalking_endpoint_name"`
}

// Validate checks the descriptor before a run is started. All URIs of a run
// must live in the run's bucket so derived keys never collide across runs.
func (c JobConfig) Validate() error {
	required := map[string]string{
		"job_name":                c.JobName,
		"bucket":                  c.Bucket,
		"prefix_inputs":           c.PrefixInputs,
		"prefix_outputs":          c.PrefixOutputs,
		"source_file_s3_uri":      c.SourceFileURI,
		"destination_s3_uri":      c.DestinationURI,
		"media_format":            c.MediaFormat,
		"tts_endpoint_name":       c.TTSEndpointName,
		"retalking_endpoint_name": c.RetalkingEndpointName,
	}
	for field, value := range required {
		if value == "" {
			return newStageError("validate", ErrValidation, fmt.Sprintf("job config field %s is required", field))
		}
	}

	for _, raw := range []string{c.SourceFileURI, c.DestinationURI} {
		uri, err := s3uri.Parse(raw)
		if err != nil {
			return wrapStageError(err, "validate", ErrValidation, "invalid uri in job config")
		}
		if uri.Bucket != c.Bucket {
			return newStageError("validate", ErrValidation,
				fmt.Sprintf("uri %s is outside the run bucket %s", raw, c.Bucket))
		}
	}

	for _, code := range []string{c.TranslateSourceLanguage, c.TranslateTargetLanguage} {
		if code == "" || code == LanguageAuto {
			continue
		}
		if _, err := language.Parse(code); err != nil {
			return wrapStageError(err, "validate", ErrValidation,
				fmt.Sprintf("invalid language code %q", code))
		}
	}

	return nil
}

// Derived artifact locations. Every write target is namespaced by job name
// so concurrent runs never collide.

func (c JobConfig) VoiceSamplesURI() s3uri.URI {
	return s3uri.Build(c.Bucket, c.PrefixInputs, c.JobName, "voice_samples")
}

func (c JobConfig) TTSJobURI(id int) s3uri.URI {
	return s3uri.Build(c.Bucket, c.PrefixInputs, c.JobName, "tts_jobs",
		fmt.Sprintf("%s-part-%d.json", c.JobName, id))
}

func (c JobConfig) TTSDestinationURI(id int) s3uri.URI {
	return s3uri.Build(c.Bucket, c.PrefixOutputs, c.JobName, "tts", fmt.Sprintf("%d.wav", id))
}

func (c JobConfig) CombinedAudioURI() s3uri.URI {
	return s3uri.Build(c.Bucket, c.PrefixInputs, c.JobName, "tts_combined",
		c.JobName+"-dubbed-tempo.wav")
}

func (c JobConfig) RetalkingJobURI() s3uri.URI {
	return s3uri.Build(c.Bucket, c.PrefixInputs, c.JobName, "retalking_jobs", c.JobName+".json")
}

// TranscriptionJob tracks one submitted transcription backend job.
type TranscriptionJob struct {
	JobName       string `json:"transcription_job_name"`
	Status        Status `json:"job_status"`
	TranscriptURI string `json:"transcript_uri,omitempty"`
}

// TranslationResult is the output of the translation branch: one translated
// sentence per source sentence, in source order.
type TranslationResult struct {
	Segments []string `json:"translated_segments"`
}

// VoiceSamplesResult is the output of the voice-sample branch.
type VoiceSamplesResult struct {
	URI   string `json:"voice_samples_uri"`
	Count int    `json:"count"`
}

// TTSJob is one per-sentence synthesis job. ID preserves source sentence
// order; concatenation downstream depends on it.
type TTSJob struct {
	ID              int            `json:"id"`
	Text            string         `json:"text"`
	VoiceSamplesURI string         `json:"voice_samples_s3_uri"`
	InputURI        string         `json:"input_s3_uri"`
	DestinationURI  string         `json:"destination_s3_uri"`
	ModelID         string         `json:"model_id"`
	InferenceParams map[string]any `json:"inference_params"`
}

// RetalkingJob is the single lip-sync job of a run.
type RetalkingJob struct {
	InputURI        string         `json:"input_s3_uri"`
	InputVideoURI   string         `json:"input_video_s3_uri"`
	InputAudioURI   string         `json:"input_audio_s3_uri"`
	OutputVideoURI  string         `json:"output_video_s3_uri"`
	InferenceParams map[string]any `json:"inference_params"`
}

// Transcriber is the asynchronous speech-to-text capability.
type Transcriber interface {
	StartJob(ctx context.Context, jobName, mediaURI, mediaFormat, languageCode string) error
	// JobStatus returns the backend-native status string and, once complete,
	// the transcript result locator.
	JobStatus(ctx context.Context, jobName string) (status string, transcriptURI string, err error)
}

// Translator is the synchronous text translation capability.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// AsyncInvoker submits a payload locator to an asynchronous model endpoint.
// Completion is observed via the object store.
type AsyncInvoker interface {
	Invoke(ctx context.Context, endpointName, inputLocation string) error
}

// MediaConverter performs the local audio transcoding steps.
type MediaConverter interface {
	ExtractAudio(ctx context.Context, mediaPath, wavPath string) error
	AdjustTempo(ctx context.Context, inputPath, outputPath string, factor float64) error
}
