package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// TranscribeClient adapts Amazon Transcribe to the pipeline's transcription
// capability.
type TranscribeClient struct {
	client *transcribe.Client
}

func NewTranscribeClient(client *transcribe.Client) *TranscribeClient {
	return &TranscribeClient{client: client}
}

// StartJob submits one transcription job for the given media object.
func (t *TranscribeClient) StartJob(
	ctx context.Context,
	jobName string,
	mediaURI string,
	mediaFormat string,
	languageCode string,
) error {
	_, err := t.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media: &types.Media{
			MediaFileUri: aws.String(mediaURI),
		},
		MediaFormat:  types.MediaFormat(mediaFormat),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return fmt.Errorf("failed to start transcription job %s: %w", jobName, err)
	}
	return nil
}

// JobStatus returns the backend's native status string and, once available,
// the transcript result locator.
func (t *TranscribeClient) JobStatus(
	ctx context.Context,
	jobName string,
) (string, string, error) {
	out, err := t.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to get transcription job %s: %w", jobName, err)
	}

	job := out.TranscriptionJob
	status := string(job.TranscriptionJobStatus)

	transcriptURI := ""
	if job.Transcript != nil {
		transcriptURI = aws.ToString(job.Transcript.TranscriptFileUri)
	}
	return status, transcriptURI, nil
}
