package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes a transcription result document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse transcript document: %w", err)
	}
	return &doc, nil
}

// Text returns the full transcript text.
func (d *Document) Text() string {
	if len(d.Results.Transcripts) == 0 {
		return ""
	}
	return d.Results.Transcripts[0].Transcript
}

// Sentences walks the timed items in order and closes a sentence at every
// period punctuation token. The start time is the first word since the last
// boundary, the end time the most recent word. A trailing span without a
// terminating period is dropped.
func (d *Document) Sentences() ([]Sentence, error) {
	var (
		sentences []Sentence
		current   strings.Builder
		startTime string
		endTime   string
	)

	for _, item := range d.Results.Items {
		if item.Type != ItemPunctuation {
			if startTime == "" {
				startTime = item.StartTime
			}
			endTime = item.EndTime
			current.WriteString(" ")
			current.WriteString(item.Content())
			continue
		}

		current.WriteString(item.Content())
		current.WriteString(" ")

		if item.Content() != "." {
			continue
		}
		// A period without any preceding word carries no timing, skip it.
		if startTime == "" {
			current.Reset()
			continue
		}

		start, err := strconv.ParseFloat(startTime, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sentence start time %q: %w", startTime, err)
		}
		end, err := strconv.ParseFloat(endTime, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sentence end time %q: %w", endTime, err)
		}

		sentences = append(sentences, Sentence{
			Text:      strings.TrimSpace(current.String()),
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
		})

		current.Reset()
		startTime = ""
		endTime = ""
	}

	return sentences, nil
}
