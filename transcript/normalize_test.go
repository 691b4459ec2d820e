package transcript

import (
	"math"
	"testing"

	"github.com/skillsenselab/meetscribe/asr"
	"github.com/skillsenselab/meetscribe/errors"
)

func utteranceResult(utterances []asr.Utterance) *asr.Result {
	return &asr.Result{
		ID:           "job-1",
		Status:       asr.StatusCompleted,
		Utterances:   utterances,
		LanguageCode: "en",
	}
}

func TestNormalizeUtterancePath(t *testing.T) {
	result := utteranceResult([]asr.Utterance{
		{Speaker: "B", Text: "Hi there everyone.", StartMs: 0, EndMs: 2000, Confidence: 0.92},
		{Speaker: "A", Text: "Hello John.", StartMs: 2000, EndMs: 4500, Confidence: 0.95},
		{Speaker: "B", Text: "Shall we start?", StartMs: 4500, EndMs: 6000, Confidence: 0.9},
	})

	n, err := Normalize(result)
	if err != nil {
		t.Fatal(err)
	}

	if len(n.SpeakerSegments) != 3 {
		t.Fatalf("got %d segments, want 3", len(n.SpeakerSegments))
	}
	if n.SpeakerCount != 2 {
		t.Errorf("speakerCount = %d, want 2", n.SpeakerCount)
	}

	// Speakers sort by numeric id, not first appearance: A(1) before B(2).
	if n.Speakers[0].SpeakerID != 1 || n.Speakers[0].SpeakerTag != "Speaker A" {
		t.Errorf("first speaker = %+v, want Speaker A (id 1)", n.Speakers[0])
	}
	if n.Speakers[1].SpeakerID != 2 || n.Speakers[1].SpeakerTag != "Speaker B" {
		t.Errorf("second speaker = %+v, want Speaker B (id 2)", n.Speakers[1])
	}

	// B spoke 0-2s and 4.5-6s.
	if got := n.Speakers[1].TotalSpeakingTime; got != 3.5 {
		t.Errorf("speaker B speaking time = %v, want 3.5", got)
	}
	if got := n.Speakers[1].FirstAppearance; got != 0 {
		t.Errorf("speaker B first appearance = %v, want 0", got)
	}
	if got := n.Speakers[0].WordCount; got != 2 {
		t.Errorf("speaker A word count = %v, want 2", got)
	}

	if n.LanguageCode != "en-us" {
		t.Errorf("languageCode = %q, want en-us", n.LanguageCode)
	}

	want := "Speaker B: Hi there everyone.\n\nSpeaker A: Hello John.\n\nSpeaker B: Shall we start?"
	if n.TextWithSpeakers != want {
		t.Errorf("textWithSpeakers = %q, want %q", n.TextWithSpeakers, want)
	}
}

func TestNormalizeWordCountFromWordList(t *testing.T) {
	result := utteranceResult([]asr.Utterance{
		{
			Speaker: "A", Text: "one two three", StartMs: 0, EndMs: 1500, Confidence: 0.9,
			Words: []asr.Word{
				{Text: "one", StartMs: 0, EndMs: 500},
				{Text: "two", StartMs: 500, EndMs: 1000},
				{Text: "three", StartMs: 1000, EndMs: 1500},
			},
		},
	})
	n, err := Normalize(result)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Speakers[0].WordCount; got != 3 {
		t.Errorf("wordCount = %d, want 3", got)
	}
}

func TestNormalizeWordPath(t *testing.T) {
	result := &asr.Result{
		Status: asr.StatusCompleted,
		Words: []asr.Word{
			{Text: "Good", Speaker: "B", StartMs: 0, EndMs: 400, Confidence: 0.9},
			{Text: "morning.", Speaker: "B", StartMs: 400, EndMs: 900, Confidence: 0.8},
			{Text: "Hi.", Speaker: "A", StartMs: 900, EndMs: 1400, Confidence: 0.95},
			{Text: "Ready?", Speaker: "B", StartMs: 1400, EndMs: 2000, Confidence: 0.85},
		},
	}

	n, err := Normalize(result)
	if err != nil {
		t.Fatal(err)
	}

	// Consecutive same-speaker runs collapse into one segment each.
	if len(n.SpeakerSegments) != 3 {
		t.Fatalf("got %d segments, want 3", len(n.SpeakerSegments))
	}
	if n.SpeakerSegments[0].Text != "Good morning." {
		t.Errorf("segment 0 text = %q", n.SpeakerSegments[0].Text)
	}
	if c := n.SpeakerSegments[0].Confidence; c == nil || math.Abs(*c-0.85) > 1e-9 {
		t.Errorf("segment 0 confidence = %v, want mean 0.85", c)
	}

	// Word path keeps first-appearance speaker order: B before A.
	if n.Speakers[0].SpeakerTag != "Speaker B" || n.Speakers[1].SpeakerTag != "Speaker A" {
		t.Errorf("speaker order = %q, %q; want B then A", n.Speakers[0].SpeakerTag, n.Speakers[1].SpeakerTag)
	}
}

func TestNormalizeDurationPrecedence(t *testing.T) {
	segments := []asr.Utterance{
		{Speaker: "A", Text: "Hello.", StartMs: 0, EndMs: 4000, Confidence: 0.9},
		{Speaker: "B", Text: "Bye.", StartMs: 4000, EndMs: 6000, Confidence: 0.9},
	}

	t.Run("provider duration wins", func(t *testing.T) {
		result := utteranceResult(segments)
		result.AudioDurationSec = 125
		n, err := Normalize(result)
		if err != nil {
			t.Fatal(err)
		}
		if n.DurationSeconds == nil || *n.DurationSeconds != 125 {
			t.Errorf("duration = %v, want 125", n.DurationSeconds)
		}
	})

	t.Run("last segment end as fallback", func(t *testing.T) {
		n, err := Normalize(utteranceResult(segments))
		if err != nil {
			t.Fatal(err)
		}
		if n.DurationSeconds == nil || *n.DurationSeconds != 6 {
			t.Errorf("duration = %v, want 6", n.DurationSeconds)
		}
	})

	t.Run("unknown when no segments", func(t *testing.T) {
		n, err := Normalize(&asr.Result{Status: asr.StatusCompleted})
		if err != nil {
			t.Fatal(err)
		}
		if n.DurationSeconds != nil {
			t.Errorf("duration = %v, want nil (unknown)", *n.DurationSeconds)
		}
	})

	t.Run("last segment end even when not the max", func(t *testing.T) {
		// Out-of-order input: the fallback still reads the final segment in
		// original order, never the maximum.
		result := utteranceResult([]asr.Utterance{
			{Speaker: "A", Text: "Later.", StartMs: 8000, EndMs: 9000, Confidence: 0.9},
			{Speaker: "B", Text: "Earlier.", StartMs: 0, EndMs: 2000, Confidence: 0.9},
		})
		n, err := Normalize(result)
		if err != nil {
			t.Fatal(err)
		}
		if n.DurationSeconds == nil || *n.DurationSeconds != 2 {
			t.Errorf("duration = %v, want 2 (last segment end)", n.DurationSeconds)
		}
	})
}

func TestNormalizeZeroLengthSegments(t *testing.T) {
	t.Run("coalesced into previous same-speaker segment", func(t *testing.T) {
		result := utteranceResult([]asr.Utterance{
			{Speaker: "A", Text: "Hello", StartMs: 0, EndMs: 2000, Confidence: 0.9},
			{Speaker: "A", Text: "there.", StartMs: 2000, EndMs: 2000, Confidence: 0.9},
		})
		n, err := Normalize(result)
		if err != nil {
			t.Fatal(err)
		}
		if len(n.SpeakerSegments) != 1 {
			t.Fatalf("got %d segments, want 1", len(n.SpeakerSegments))
		}
		if n.SpeakerSegments[0].Text != "Hello there." {
			t.Errorf("text = %q, want coalesced text", n.SpeakerSegments[0].Text)
		}
		if n.SpeakerSegments[0].EndTime != 2 {
			t.Errorf("endTime = %v, must stay 2", n.SpeakerSegments[0].EndTime)
		}
	})

	t.Run("dropped when no same-speaker predecessor", func(t *testing.T) {
		result := utteranceResult([]asr.Utterance{
			{Speaker: "A", Text: "Hello.", StartMs: 0, EndMs: 2000, Confidence: 0.9},
			{Speaker: "B", Text: "blip", StartMs: 2000, EndMs: 2000, Confidence: 0.9},
		})
		n, err := Normalize(result)
		if err != nil {
			t.Fatal(err)
		}
		if len(n.SpeakerSegments) != 1 {
			t.Fatalf("got %d segments, want 1", len(n.SpeakerSegments))
		}
		if n.SpeakerSegments[0].SpeakerTag != "Speaker A" {
			t.Errorf("surviving segment = %+v", n.SpeakerSegments[0])
		}
		// the dropped utterance must not leave a speaker record either
		if len(n.Speakers) != 1 || n.Speakers[0].SpeakerTag != "Speaker A" {
			t.Errorf("speakers = %+v, want only Speaker A", n.Speakers)
		}
	})

	t.Run("coalesced text counts toward the speaker stats", func(t *testing.T) {
		result := utteranceResult([]asr.Utterance{
			{Speaker: "A", Text: "Hello", StartMs: 0, EndMs: 2000, Confidence: 0.9},
			{Speaker: "A", Text: "there friend.", StartMs: 2000, EndMs: 2000, Confidence: 0.9},
		})
		n, err := Normalize(result)
		if err != nil {
			t.Fatal(err)
		}
		if len(n.Speakers) != 1 || n.Speakers[0].WordCount != 3 {
			t.Errorf("speakers = %+v, want 3 words for Speaker A", n.Speakers)
		}
	})
}

func TestNormalizeProviderError(t *testing.T) {
	_, err := Normalize(&asr.Result{Status: asr.StatusError, Error: "audio too short"})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeProviderFailure {
		t.Fatalf("err = %v, want PROVIDER_FAILURE", err)
	}
	if appErr.Cause == nil || appErr.Cause.Error() != "audio too short" {
		t.Errorf("cause = %v, want provider message", appErr.Cause)
	}
}

func TestSpeakerIDFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"A", 1, true},
		{"B", 2, true},
		{"Z", 26, true},
		{"a", 1, true},
		{"1", 1, true},
		{"12", 12, true},
		{"0", 0, true},
		{"AB", 0, false},
		{"_", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := SpeakerIDFromLabel(tc.label)
		if got != tc.want || ok != tc.ok {
			t.Errorf("SpeakerIDFromLabel(%q) = (%d, %v), want (%d, %v)", tc.label, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeUnparseableLabelsGetStableIDs(t *testing.T) {
	result := utteranceResult([]asr.Utterance{
		{Speaker: "spk_0", Text: "one.", StartMs: 0, EndMs: 1000, Confidence: 0.9},
		{Speaker: "spk_1", Text: "two.", StartMs: 1000, EndMs: 2000, Confidence: 0.9},
		{Speaker: "spk_0", Text: "three.", StartMs: 2000, EndMs: 3000, Confidence: 0.9},
	})
	n, err := Normalize(result)
	if err != nil {
		t.Fatal(err)
	}
	if n.Speakers[0].SpeakerID != 1 || n.Speakers[1].SpeakerID != 2 {
		t.Errorf("fallback ids = %d, %d; want 1, 2", n.Speakers[0].SpeakerID, n.Speakers[1].SpeakerID)
	}
}
