package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/config"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/logger"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/storage"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/transcript"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// failedMarkerSuffix names the object a backend writes next to a job's
// declared output when the job terminally fails. Its body is the reason.
const failedMarkerSuffix = ".failed"

// Deps are the external capabilities every stage handler works through.
// Handlers hold no ambient clients; everything is injected here.
type Deps struct {
	Store       storage.Store
	Transcriber Transcriber
	Translator  Translator
	TTS         AsyncInvoker
	Retalking   AsyncInvoker
	Converter   MediaConverter
}

// Stages bundles the stage handlers of the pipeline. Handlers are stateless
// pure transforms; all mutable run state lives with the orchestrator.
type Stages struct {
	deps          Deps
	partialPolicy config.PartialPolicy
	httpClient    *http.Client
	log           *logrus.Entry
	now           func() time.Time
}

func NewStages(
	deps Deps,
	partialPolicy config.PartialPolicy,
	log *logger.Logger,
) *Stages {
	return &Stages{
		deps:          deps,
		partialPolicy: partialPolicy,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		log:           log.Entry,
		now:           time.Now,
	}
}

// JobState is the explicit status vocabulary for asynchronous backend jobs.
type JobState int

const (
	JobRunning JobState = iota
	JobSucceeded
	JobFailed
)

// probeOutput infers a backend job's state from its declared output object:
// output present means success, a failure marker means terminal failure,
// neither means still running.
func (s *Stages) probeOutput(ctx context.Context, output s3uri.URI) (JobState, string, error) {
	exists, err := s.deps.Store.Exists(ctx, output)
	if err != nil {
		return JobRunning, "", fmt.Errorf("failed to check %s: %w", output, err)
	}
	if exists {
		return JobSucceeded, "", nil
	}

	marker := s3uri.URI{Bucket: output.Bucket, Key: output.Key + failedMarkerSuffix}
	exists, err = s.deps.Store.Exists(ctx, marker)
	if err != nil {
		return JobRunning, "", fmt.Errorf("failed to check %s: %w", marker, err)
	}
	if exists {
		reason := "backend reported failure"
		if body, err := s.deps.Store.Get(ctx, marker); err == nil && len(body) > 0 {
			reason = strings.TrimSpace(string(body))
		}
		return JobFailed, reason, nil
	}

	return JobRunning, "", nil
}

// fetchTranscript loads the transcript document from the job's result
// locator, which may be an object-store uri or a plain https url.
func (s *Stages) fetchTranscript(ctx context.Context, transcriptURI string) (*transcript.Document, error) {
	var (
		body []byte
		err  error
	)

	if strings.HasPrefix(transcriptURI, "s3://") {
		uri, perr := s3uri.Parse(transcriptURI)
		if perr != nil {
			return nil, perr
		}
		body, err = s.deps.Store.Get(ctx, uri)
	} else {
		body, err = s.httpGet(ctx, transcriptURI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript %s: %w", transcriptURI, err)
	}

	return transcript.Parse(body)
}

func (s *Stages) httpGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
