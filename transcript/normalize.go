package transcript

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/skillsenselab/meetscribe/asr"
	"github.com/skillsenselab/meetscribe/errors"
	"github.com/skillsenselab/meetscribe/logger"
)

// Normalized is the canonical output of diarization post-processing.
type Normalized struct {
	Speakers         []Speaker        `json:"speakers"`
	SpeakerSegments  []SpeakerSegment `json:"speakerSegments"`
	TextWithSpeakers string           `json:"transcriptWithSpeakers"`
	SpeakerCount     int              `json:"speakerCount"`
	// DurationSeconds is nil when neither the provider nor the segments give
	// a usable duration.
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
	// LanguageCode is the locale-qualified language code.
	LanguageCode string `json:"languageCode,omitempty"`
}

// Normalize converts a raw recognition result into the canonical
// speaker-segmented model. It handles both provider shapes: utterance lists
// (already grouped by the provider) and flat word lists (grouped here by
// consecutive same-speaker runs).
//
// Terminal provider errors are returned as PROVIDER_FAILURE without running
// any of the normalization.
func Normalize(result *asr.Result) (*Normalized, error) {
	if result == nil {
		return nil, errors.InvalidInput("result", "recognition result is required")
	}
	if result.Status == asr.StatusError {
		msg := result.Error
		if msg == "" {
			msg = "recognition failed"
		}
		return nil, errors.ProviderFailure("speech recognition", stderrors.New(msg))
	}

	n := &normalizer{
		log:          logger.WithComponent("normalizer"),
		speakerIndex: make(map[string]int),
		fallbackIDs:  make(map[string]int),
	}

	var segments []SpeakerSegment
	if len(result.Utterances) > 0 {
		segments = n.fromUtterances(result.Utterances)
		// Display order follows numeric speaker ids when the provider gives
		// canonical labels.
		n.sortSpeakersByID()
	} else {
		segments = n.fromWords(result.Words)
		// Word-level providers give no canonical numbering; keep first
		// appearance order.
	}

	n.checkChronology(segments)

	out := &Normalized{
		Speakers:         n.speakers,
		SpeakerSegments:  segments,
		TextWithSpeakers: FormatWithSpeakers(segments),
		SpeakerCount:     len(n.speakers),
		LanguageCode:     NormalizeLanguageCode(result.LanguageCode),
	}
	out.DurationSeconds = resolveDuration(result.AudioDurationSec, segments)
	return out, nil
}

// resolveDuration applies the duration precedence: provider-reported value
// first, then the end time of the last segment in original order. Segments
// are assumed chronological, so the last end is used rather than the max.
// Nil means unknown, which callers must distinguish from zero.
func resolveDuration(providerDuration float64, segments []SpeakerSegment) *float64 {
	if providerDuration > 0 {
		return &providerDuration
	}
	if len(segments) > 0 {
		d := segments[len(segments)-1].EndTime
		return &d
	}
	return nil
}

type normalizer struct {
	log          *logger.Logger
	speakers     []Speaker
	speakerIndex map[string]int // tag -> index into speakers
	fallbackIDs  map[string]int // raw label -> assigned id for unparseable labels
}

func (n *normalizer) fromUtterances(utterances []asr.Utterance) []SpeakerSegment {
	segments := make([]SpeakerSegment, 0, len(utterances))
	for _, u := range utterances {
		tag := "Speaker " + u.Speaker
		start := MsToSeconds(u.StartMs)
		end := MsToSeconds(u.EndMs)

		seg := SpeakerSegment{
			SpeakerTag: tag,
			StartTime:  start,
			EndTime:    end,
			Text:       u.Text,
		}
		if u.Confidence > 0 {
			c := u.Confidence
			seg.Confidence = &c
		}

		var kept bool
		segments, kept = appendSegment(segments, seg)
		if !kept {
			continue
		}

		// Stats accumulate only for utterances that survive the zero-length
		// policy; a dropped utterance must not leave a speaker record whose
		// text appears in no segment.
		sp := n.speaker(u.Speaker, tag, start)
		sp.TotalSpeakingTime += end - start
		if len(u.Words) > 0 {
			sp.WordCount += len(u.Words)
		} else {
			sp.WordCount += countWords(u.Text)
		}
	}
	return segments
}

func (n *normalizer) fromWords(words []asr.Word) []SpeakerSegment {
	var segments []SpeakerSegment
	i := 0
	for i < len(words) {
		// A run covers consecutive words with the same speaker tag.
		j := i
		for j < len(words) && words[j].Speaker == words[i].Speaker {
			j++
		}
		run := words[i:j]

		tag := "Speaker " + run[0].Speaker
		start := MsToSeconds(run[0].StartMs)
		end := MsToSeconds(run[len(run)-1].EndMs)

		texts := make([]string, len(run))
		var confSum float64
		for k, w := range run {
			texts[k] = w.Text
			confSum += w.Confidence
		}
		conf := confSum / float64(len(run))

		seg := SpeakerSegment{
			SpeakerTag: tag,
			StartTime:  start,
			EndTime:    end,
			Text:       strings.Join(texts, " "),
		}
		if conf > 0 {
			seg.Confidence = &conf
		}

		var kept bool
		segments, kept = appendSegment(segments, seg)
		if kept {
			sp := n.speaker(run[0].Speaker, tag, start)
			sp.TotalSpeakingTime += end - start
			sp.WordCount += len(run)
		}

		i = j
	}
	return segments
}

// appendSegment enforces the startTime < endTime invariant. A zero-length
// segment is coalesced into the previous segment when that segment belongs
// to the same speaker; otherwise it is dropped. Zero-length segments are
// never emitted standalone. The second return value reports whether the
// segment's text made it into the output; callers skip speaker stat
// accumulation for dropped segments.
func appendSegment(segments []SpeakerSegment, seg SpeakerSegment) ([]SpeakerSegment, bool) {
	if seg.EndTime > seg.StartTime {
		return append(segments, seg), true
	}
	if len(segments) > 0 && segments[len(segments)-1].SpeakerTag == seg.SpeakerTag && seg.Text != "" {
		prev := &segments[len(segments)-1]
		prev.Text = strings.TrimSpace(prev.Text + " " + seg.Text)
		return segments, true
	}
	return segments, false
}

// speaker returns the Speaker record for a raw label, creating it on first
// sight with firstAppearance set to the current start time.
func (n *normalizer) speaker(rawLabel, tag string, start float64) *Speaker {
	if idx, ok := n.speakerIndex[tag]; ok {
		return &n.speakers[idx]
	}
	n.speakers = append(n.speakers, Speaker{
		SpeakerID:       n.speakerID(rawLabel),
		SpeakerTag:      tag,
		FirstAppearance: start,
	})
	n.speakerIndex[tag] = len(n.speakers) - 1
	return &n.speakers[len(n.speakers)-1]
}

// speakerID derives a stable numeric id from a raw provider label: numeric
// labels parse directly and single letters map by alphabetic position
// (A=1..Z=26). Labels in neither format get sequential ids in order of first
// appearance, stable within the transcript.
func (n *normalizer) speakerID(rawLabel string) int {
	if id, ok := SpeakerIDFromLabel(rawLabel); ok {
		return id
	}
	if id, ok := n.fallbackIDs[rawLabel]; ok {
		return id
	}
	id := len(n.fallbackIDs) + 1
	n.fallbackIDs[rawLabel] = id
	return id
}

// SpeakerIDFromLabel derives a numeric speaker id from a canonical raw
// label. It reports false for labels that are neither numeric nor a single
// ASCII letter.
func SpeakerIDFromLabel(rawLabel string) (int, bool) {
	if id, err := strconv.Atoi(rawLabel); err == nil {
		return id, true
	}
	if len(rawLabel) == 1 {
		c := rawLabel[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			return int(c - 'A' + 1), true
		}
	}
	return 0, false
}

func (n *normalizer) sortSpeakersByID() {
	// Insertion order is first appearance; stable re-sort by id for display.
	speakers := n.speakers
	for i := 1; i < len(speakers); i++ {
		for j := i; j > 0 && speakers[j].SpeakerID < speakers[j-1].SpeakerID; j-- {
			speakers[j], speakers[j-1] = speakers[j-1], speakers[j]
		}
	}
}

// checkChronology asserts the non-decreasing startTime precondition. A
// violation points at a provider ordering bug; it is logged and the order is
// preserved as received, never silently sorted.
func (n *normalizer) checkChronology(segments []SpeakerSegment) {
	for i := 1; i < len(segments); i++ {
		if segments[i].StartTime < segments[i-1].StartTime {
			n.log.Warn("Segments out of chronological order", map[string]interface{}{
				"index":      i,
				"start":      segments[i].StartTime,
				"prev_start": segments[i-1].StartTime,
			})
			return
		}
	}
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
