package correction

import (
	"testing"

	"github.com/skillsenselab/meetscribe/transcript"
)

func TestApplySimpleReplacements(t *testing.T) {
	conf := 0.95
	segments := []transcript.SpeakerSegment{
		{SpeakerTag: "Speaker A", StartTime: 0, EndTime: 2, Text: "Hello John.", Confidence: &conf},
		{SpeakerTag: "Speaker B", StartTime: 2, EndTime: 4, Text: "Hi john, hello JOHN."},
		{SpeakerTag: "Speaker A", StartTime: 4, EndTime: 6, Text: "Nothing here."},
	}
	rules := []Rule{{Find: "John", Replace: "Jon"}}

	corrected, affected := ApplySimpleReplacements(segments, rules)

	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}
	if corrected[0].Text != "Hello Jon." {
		t.Errorf("segment 0 text = %q", corrected[0].Text)
	}
	// case-insensitive global replace
	if corrected[1].Text != "Hi Jon, hello Jon." {
		t.Errorf("segment 1 text = %q", corrected[1].Text)
	}
	if corrected[2].Text != "Nothing here." {
		t.Errorf("segment 2 text = %q", corrected[2].Text)
	}
}

func TestApplyPreservesMetadata(t *testing.T) {
	conf := 0.9
	segments := []transcript.SpeakerSegment{
		{SpeakerTag: "Speaker A", StartTime: 1.5, EndTime: 3.25, Text: "fix this and this", Confidence: &conf},
	}
	corrected, _ := ApplySimpleReplacements(segments, []Rule{{Find: "this", Replace: "that"}})

	got := corrected[0]
	if got.SpeakerTag != "Speaker A" || got.StartTime != 1.5 || got.EndTime != 3.25 {
		t.Errorf("metadata changed: %+v", got)
	}
	if got.Confidence == nil || *got.Confidence != 0.9 {
		t.Errorf("confidence changed: %v", got.Confidence)
	}
	if got.Text != "fix that and that" {
		t.Errorf("text = %q", got.Text)
	}

	// originals untouched
	if segments[0].Text != "fix this and this" {
		t.Error("applier mutated input segments")
	}
}

func TestApplyAffectedCountedOncePerSegment(t *testing.T) {
	segments := segs("John met Mary.")
	rules := []Rule{
		{Find: "John", Replace: "Jon"},
		{Find: "Mary", Replace: "Maria"},
	}
	corrected, affected := ApplySimpleReplacements(segments, rules)
	if affected != 1 {
		t.Errorf("affected = %d, want 1 (segment counts once, not per rule)", affected)
	}
	if corrected[0].Text != "Jon met Maria." {
		t.Errorf("text = %q", corrected[0].Text)
	}
}

func TestApplyLiteralSpecialCharacters(t *testing.T) {
	segments := segs("cost is $5.00 (roughly)")
	corrected, affected := ApplySimpleReplacements(segments, []Rule{{Find: "$5.00 (roughly)", Replace: "$6.00"}})
	if affected != 1 || corrected[0].Text != "cost is $6.00" {
		t.Errorf("text = %q, affected = %d", corrected[0].Text, affected)
	}
}

func TestApplyCaseSensitiveRule(t *testing.T) {
	segments := segs("Polish the polish.")
	corrected, _ := ApplySimpleReplacements(segments, []Rule{{Find: "Polish", Replace: "Buff", CaseSensitive: true}})
	if corrected[0].Text != "Buff the polish." {
		t.Errorf("text = %q", corrected[0].Text)
	}
}

func TestApplyNoRules(t *testing.T) {
	segments := segs("unchanged")
	corrected, affected := ApplySimpleReplacements(segments, nil)
	if affected != 0 || corrected[0].Text != "unchanged" {
		t.Errorf("unexpected change: %+v (affected %d)", corrected, affected)
	}
}
