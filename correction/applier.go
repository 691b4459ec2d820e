package correction

import (
	"regexp"

	"github.com/skillsenselab/meetscribe/transcript"
)

// ApplySimpleReplacements executes deterministic rules against segments and
// returns the corrected copy plus the number of segments whose text changed.
// A segment counts once even when several rules touched it.
//
// Only Text is mutated. SpeakerTag, StartTime, EndTime, and Confidence are
// carried through unchanged; timestamp integrity is never broken by a text
// correction.
func ApplySimpleReplacements(segments []transcript.SpeakerSegment, rules []Rule) ([]transcript.SpeakerSegment, int) {
	corrected := transcript.CloneSegments(segments)
	if len(rules) == 0 {
		return corrected, 0
	}

	patterns := make([]*regexp.Regexp, len(rules))
	for i, rule := range rules {
		patterns[i] = compileRule(rule)
	}

	affected := 0
	for i := range corrected {
		original := corrected[i].Text
		text := original
		for j, rule := range rules {
			text = patterns[j].ReplaceAllLiteralString(text, rule.Replace)
		}
		if text != original {
			corrected[i].Text = text
			affected++
		}
	}
	return corrected, affected
}

// compileRule builds the global substitution pattern for a rule. The find
// term is matched literally; case-insensitively unless the rule opts out.
func compileRule(rule Rule) *regexp.Regexp {
	expr := regexp.QuoteMeta(rule.Find)
	if !rule.CaseSensitive {
		expr = "(?i)" + expr
	}
	return regexp.MustCompile(expr)
}
