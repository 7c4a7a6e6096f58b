package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Translate fetches the completed transcript, splits it into sentences on
// the period character, and translates each sentence individually,
// preserving source order. Timing is recovered from the transcript items
// downstream, not from this split.
func (s *Stages) Translate(ctx context.Context, cfg JobConfig, tjob TranscriptionJob) (TranslationResult, error) {
	doc, err := s.fetchTranscript(ctx, tjob.TranscriptURI)
	if err != nil {
		return TranslationResult{}, wrapStageError(err, "translate", ErrExternal, "failed to retrieve transcript")
	}

	text := doc.Text()
	sourceLang := cfg.TranslateSourceLanguage
	if sourceLang == LanguageAuto || sourceLang == "" {
		sourceLang = whatlanggo.DetectLang(text).Iso6391()
		s.log.WithField("job_name", cfg.JobName).
			WithField("detected_language", sourceLang).
			Info("detected translation source language")
	}

	log := s.log.WithField("job_name", cfg.JobName)
	log.Info("splitting transcript into segments for translation")

	segments := strings.Split(text, ".")

	translated := make([]string, 0, len(segments))
	var failures []error
	for _, segment := range segments {
		if segment == "" {
			continue
		}

		out, err := s.deps.Translator.Translate(ctx, segment+".", sourceLang, cfg.TranslateTargetLanguage)
		if err != nil {
			if s.partialPolicy.Strict() {
				return TranslationResult{}, wrapStageError(err, "translate", ErrExternal, "segment translation failed")
			}
			log.WithError(err).Warn("skipping failed segment translation")
			failures = append(failures, err)
			continue
		}
		translated = append(translated, out)
	}

	if len(translated) == 0 {
		err := newStageError("translate", ErrValidation, "translation failed: no segments were translated")
		if len(failures) > 0 {
			err.Cause = failures[0]
		}
		return TranslationResult{}, err
	}

	log.Info(fmt.Sprintf("translated %d segments", len(translated)))
	return TranslationResult{Segments: translated}, nil
}
