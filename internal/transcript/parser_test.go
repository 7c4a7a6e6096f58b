package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(content, start, end string) Item {
	return Item{
		Type:         ItemPronunciation,
		StartTime:    start,
		EndTime:      end,
		Alternatives: []Alternative{{Content: content}},
	}
}

func punct(content string) Item {
	return Item{
		Type:         ItemPunctuation,
		Alternatives: []Alternative{{Content: content}},
	}
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"jobName": "clip-123-job",
		"results": {
			"transcripts": [{"transcript": "Hello world."}],
			"items": [
				{"type": "pronunciation", "start_time": "0.0", "end_time": "0.5",
				 "alternatives": [{"content": "Hello", "confidence": "0.99"}]},
				{"type": "pronunciation", "start_time": "0.6", "end_time": "1.1",
				 "alternatives": [{"content": "world", "confidence": "0.98"}]},
				{"type": "punctuation", "alternatives": [{"content": "."}]}
			]
		}
	}`)

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "clip-123-job", doc.JobName)
	assert.Equal(t, "Hello world.", doc.Text())
	assert.Len(t, doc.Results.Items, 3)
}

func TestSentences_OnePerPeriod(t *testing.T) {
	doc := &Document{Results: Results{Items: []Item{
		word("Good", "0.0", "0.4"),
		word("morning", "0.5", "1.0"),
		punct("."),
		word("How", "1.5", "1.8"),
		word("are", "1.9", "2.1"),
		word("you", "2.2", "2.5"),
		punct("."),
	}}}

	sentences, err := doc.Sentences()
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, "Good morning.", sentences[0].Text)
	assert.Equal(t, 0.0, sentences[0].StartTime)
	assert.Equal(t, 1.0, sentences[0].EndTime)
	assert.InDelta(t, 1.0, sentences[0].Duration, 1e-9)

	assert.Equal(t, "How are you.", sentences[1].Text)
	assert.Equal(t, 1.5, sentences[1].StartTime)
	assert.Equal(t, 2.5, sentences[1].EndTime)

	for _, s := range sentences {
		assert.GreaterOrEqual(t, s.Duration, 0.0)
	}
}

func TestSentences_NonPeriodPunctuationDoesNotSplit(t *testing.T) {
	doc := &Document{Results: Results{Items: []Item{
		word("Well", "0.0", "0.3"),
		punct(","),
		word("yes", "0.4", "0.7"),
		punct("."),
	}}}

	sentences, err := doc.Sentences()
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, 0.0, sentences[0].StartTime)
	assert.Equal(t, 0.7, sentences[0].EndTime)
}

func TestSentences_TrailingPartialDropped(t *testing.T) {
	doc := &Document{Results: Results{Items: []Item{
		word("Complete", "0.0", "0.6"),
		punct("."),
		word("dangling", "1.0", "1.4"),
		word("words", "1.5", "1.9"),
	}}}

	sentences, err := doc.Sentences()
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, "Complete.", sentences[0].Text)
}

func TestSentences_PeriodWithoutWordsSkipped(t *testing.T) {
	doc := &Document{Results: Results{Items: []Item{
		punct("."),
		word("Hi", "0.0", "0.2"),
		punct("."),
	}}}

	sentences, err := doc.Sentences()
	require.NoError(t, err)
	require.Len(t, sentences, 1)
}

func TestSentences_BadTimestamp(t *testing.T) {
	doc := &Document{Results: Results{Items: []Item{
		word("Oops", "zero", "0.2"),
		punct("."),
	}}}

	_, err := doc.Sentences()
	require.Error(t, err)
}

func TestSentences_Empty(t *testing.T) {
	doc := &Document{}
	sentences, err := doc.Sentences()
	require.NoError(t, err)
	assert.Empty(t, sentences)
}
