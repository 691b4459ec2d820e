package asr

// Status is the lifecycle state of a recognition job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Word is a single recognized word with its own speaker tag and timestamps.
type Word struct {
	// Text is the recognized word.
	Text string `json:"text"`
	// Speaker is the raw speaker label assigned by the provider.
	Speaker string `json:"speaker,omitempty"`
	// StartMs is the word start time in milliseconds.
	StartMs int64 `json:"start"`
	// EndMs is the word end time in milliseconds.
	EndMs int64 `json:"end"`
	// Confidence is the recognition confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Utterance is a contiguous span of speech from one speaker as grouped by
// the provider.
type Utterance struct {
	// Speaker is the raw speaker label (e.g. "A" or "1").
	Speaker string `json:"speaker"`
	// Text is the utterance text.
	Text string `json:"text"`
	// StartMs is the utterance start time in milliseconds.
	StartMs int64 `json:"start"`
	// EndMs is the utterance end time in milliseconds.
	EndMs int64 `json:"end"`
	// Confidence is the recognition confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Words holds per-word detail when the provider returns it.
	Words []Word `json:"words,omitempty"`
}

// Result is the normalized outcome of polling a recognition job. Exactly one
// of Utterances or Words is populated for completed jobs with speaker labels;
// providers that group speech return utterances, word-level providers return
// a flat word list.
type Result struct {
	// ID is the provider's job identifier.
	ID string `json:"id"`
	// Status is the job status.
	Status Status `json:"status"`
	// Text is the full transcript text without speaker attribution.
	Text string `json:"text,omitempty"`
	// Utterances contains speaker-grouped spans, if the provider groups them.
	Utterances []Utterance `json:"utterances,omitempty"`
	// Words contains the flat word list, if the provider returns word-level output.
	Words []Word `json:"words,omitempty"`
	// LanguageCode is the detected or requested language (provider short code).
	LanguageCode string `json:"language_code,omitempty"`
	// Confidence is the overall recognition confidence in [0,1].
	Confidence float64 `json:"confidence,omitempty"`
	// AudioDurationSec is the provider-reported audio duration in seconds,
	// zero when not reported.
	AudioDurationSec float64 `json:"audio_duration,omitempty"`
	// Error carries the provider's message for StatusError results.
	Error string `json:"error,omitempty"`
}
