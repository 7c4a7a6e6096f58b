package transcript

// ItemType distinguishes timed words from punctuation tokens.
type ItemType string

const (
	ItemPronunciation ItemType = "pronunciation"
	ItemPunctuation   ItemType = "punctuation"
)

// Document is the result payload written by the transcription backend.
type Document struct {
	JobName string  `json:"jobName"`
	Results Results `json:"results"`
}

type Results struct {
	Transcripts []Transcript `json:"transcripts"`
	Items       []Item       `json:"items"`
}

type Transcript struct {
	Transcript string `json:"transcript"`
}

// Item is one timed token of the transcript. Punctuation items carry no
// start or end time.
type Item struct {
	Type         ItemType      `json:"type"`
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
}

type Alternative struct {
	Content    string `json:"content"`
	Confidence string `json:"confidence,omitempty"`
}

// Content returns the best alternative of the item.
func (i Item) Content() string {
	if len(i.Alternatives) == 0 {
		return ""
	}
	return i.Alternatives[0].Content
}

// Sentence is a transcript span closed by a period token, with timing taken
// from its first and last word.
type Sentence struct {
	Text      string  `json:"sentence"`
	StartTime float64 `json:"sentence_start_time"`
	EndTime   float64 `json:"sentence_end_time"`
	Duration  float64 `json:"sentence_duration"`
}
