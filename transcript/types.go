package transcript

import "time"

// Status is the processing state of a transcript.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Speaker is the canonical per-speaker record with aggregated statistics.
// Created once during normalization; only CustomName is ever mutated after.
type Speaker struct {
	// SpeakerID is derived deterministically from the raw provider label:
	// numeric labels parse directly, single letters map by alphabetic
	// position (A=1). Unique per transcript, not globally.
	SpeakerID int `json:"speakerId"`
	// SpeakerTag is the display tag, e.g. "Speaker A".
	SpeakerTag string `json:"speakerTag"`
	// TotalSpeakingTime is the accumulated speaking time in seconds.
	TotalSpeakingTime float64 `json:"totalSpeakingTime"`
	// WordCount is the accumulated number of recognized words.
	WordCount int `json:"wordCount"`
	// FirstAppearance is when the speaker first spoke, in seconds.
	FirstAppearance float64 `json:"firstAppearance"`
	// CustomName is the user-assigned display name, if renamed.
	CustomName string `json:"customName,omitempty"`
}

// SpeakerSegment is the canonical unit of the transcript: one speaker, one
// time range, one text string. The correction pipeline mutates Text only;
// SpeakerTag, StartTime, EndTime, and Confidence are carried through
// unchanged so playback seek and citations stay valid.
type SpeakerSegment struct {
	SpeakerTag string  `json:"speakerTag"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Text       string  `json:"text"`
	// Confidence is the recognition confidence in [0,1], nil when unknown.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Transcript is the parent record owning the speaker and segment arrays.
type Transcript struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Status Status `json:"status"`
	// Text is the plain transcript without speaker attribution.
	Text string `json:"transcriptText"`
	// TextWithSpeakers is the derived speaker-labeled view.
	TextWithSpeakers string           `json:"transcriptWithSpeakers"`
	Speakers         []Speaker        `json:"speakers"`
	SpeakerSegments  []SpeakerSegment `json:"speakerSegments"`
	LanguageCode     string           `json:"languageCode,omitempty"`
	// DurationSeconds is nil when the duration is unknown, which is distinct
	// from a zero-length recording.
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
	// Translations maps language codes to stored translated text.
	Translations map[string]string `json:"translations,omitempty"`
	// GeneratedAnalysisIDs references user-generated analyses derived from
	// the transcript text.
	GeneratedAnalysisIDs []string `json:"generatedAnalysisIds,omitempty"`
	// Version backs optimistic concurrency on updates.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the transcript. Correction previews work on
// copies so the stored record is never touched.
func (t *Transcript) Clone() *Transcript {
	out := *t
	out.Speakers = append([]Speaker(nil), t.Speakers...)
	out.SpeakerSegments = CloneSegments(t.SpeakerSegments)
	if t.DurationSeconds != nil {
		d := *t.DurationSeconds
		out.DurationSeconds = &d
	}
	if t.Translations != nil {
		out.Translations = make(map[string]string, len(t.Translations))
		for k, v := range t.Translations {
			out.Translations[k] = v
		}
	}
	out.GeneratedAnalysisIDs = append([]string(nil), t.GeneratedAnalysisIDs...)
	return &out
}

// CloneSegments returns a deep copy of a segment slice, including the
// optional confidence values.
func CloneSegments(segments []SpeakerSegment) []SpeakerSegment {
	if segments == nil {
		return nil
	}
	out := make([]SpeakerSegment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		if seg.Confidence != nil {
			c := *seg.Confidence
			out[i].Confidence = &c
		}
	}
	return out
}
