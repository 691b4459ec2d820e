package correction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/skillsenselab/meetscribe/transcript"
)

// substitutionMatcher extracts literal find/replace pairs from one clause of
// an instruction. Matchers are tried in priority order; quoted forms win over
// bare tokens so multi-word terms survive. The list is open for extension.
type substitutionMatcher struct {
	name string
	re   *regexp.Regexp
}

var substitutionMatchers = []substitutionMatcher{
	{
		name: "double-quoted",
		re:   regexp.MustCompile(`(?i)\b(?:change|replace|fix|correct|rename)\s+"([^"]+)"\s+(?:to|with|as)\s+"([^"]+)"`),
	},
	{
		name: "single-quoted",
		re:   regexp.MustCompile(`(?i)\b(?:change|replace|fix|correct|rename)\s+'([^']+)'\s+(?:to|with|as)\s+'([^']+)'`),
	},
	{
		name: "bare",
		re:   regexp.MustCompile(`(?i)\b(?:change|replace|fix|correct|rename)\s+([^\s"']+)\s+(?:to|with|as)\s+([^\s"'.,;]+)`),
	},
}

// connectives are filler tokens stripped from residual clause text before
// deciding whether anything meaningful is left for the model path.
var connectives = map[string]struct{}{
	"and": {}, "also": {}, "then": {}, "please": {}, "too": {}, "the": {}, "a": {},
}

// AnalyzeAndRoute classifies a free-text instruction into deterministic
// replacement rules plus residual complex corrections. Literal substitutions
// ("change X to Y") must not incur a model call; only instructions needing
// contextual judgment fall through to the rewrite provider.
//
// The returned rules carry match estimates computed against the given
// segments. Rules with zero matches across all segments are dropped from the
// apply set and reported informationally.
func AnalyzeAndRoute(segments []transcript.SpeakerSegment, instruction string) RouteResult {
	var result RouteResult

	for _, clause := range splitClauses(instruction) {
		rules, residual := extractRules(clause)
		for _, rule := range rules {
			rule.EstimatedMatches = totalMatches(segments, rule)
			rule.Confidence = tierConfidence(rule)
			if rule.EstimatedMatches == 0 {
				result.DroppedRules = append(result.DroppedRules, rule)
				continue
			}
			result.SimpleReplacements = append(result.SimpleReplacements, rule)
		}
		if residual != "" {
			result.ComplexCorrections = append(result.ComplexCorrections, residual)
		}
	}

	affected := 0
	for _, seg := range segments {
		for _, rule := range result.SimpleReplacements {
			if countMatches(seg.Text, rule) > 0 {
				affected++
				break
			}
		}
	}

	result.Summary = RouteSummary{
		TotalCorrections:      len(result.SimpleReplacements) + len(result.ComplexCorrections),
		TotalSegmentsAffected: affected,
	}
	if len(segments) > 0 {
		result.Summary.PercentageAffected = float64(affected) / float64(len(segments))
	}
	return result
}

// splitClauses breaks an instruction into independently routable clauses.
func splitClauses(instruction string) []string {
	raw := regexp.MustCompile(`[;\n]+`).Split(instruction, -1)
	clauses := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

// extractRules pulls every literal substitution out of a clause and returns
// the rules plus whatever instruction text remains. Matched spans are removed
// before lower-priority matchers run so a quoted pair is never re-parsed as a
// bare one.
func extractRules(clause string) ([]Rule, string) {
	var rules []Rule
	remaining := clause

	for _, m := range substitutionMatchers {
		for {
			loc := m.re.FindStringSubmatchIndex(remaining)
			if loc == nil {
				break
			}
			find := remaining[loc[2]:loc[3]]
			replace := remaining[loc[4]:loc[5]]
			rules = append(rules, Rule{
				Find:    find,
				Replace: replace,
				// Replacements are case-insensitive by default.
				CaseSensitive: false,
			})
			remaining = remaining[:loc[0]] + " " + remaining[loc[1]:]
		}
	}

	return rules, residualText(remaining)
}

// residualText decides whether leftover clause text still carries an
// instruction once connectives and punctuation are ignored. Meaningful
// residue is forwarded verbatim (whitespace collapsed), not the stripped
// form.
func residualText(s string) string {
	meaningful := false
	for _, tok := range strings.Fields(s) {
		word := strings.ToLower(strings.Trim(tok, ".,!?"))
		if word == "" {
			continue
		}
		if _, ok := connectives[word]; ok {
			continue
		}
		meaningful = true
		break
	}
	if !meaningful {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// tierConfidence grades a rule: short pairs are low (substring collisions),
// capitalized terms with at least one occurrence are high (proper nouns),
// everything else is medium.
func tierConfidence(rule Rule) RuleConfidence {
	if len(rule.Find) <= 2 || len(rule.Replace) <= 2 {
		return ConfidenceLow
	}
	if isProperNoun(rule.Find) && rule.EstimatedMatches >= 1 {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func isProperNoun(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// totalMatches counts occurrences of a rule's find term across all segments.
func totalMatches(segments []transcript.SpeakerSegment, rule Rule) int {
	total := 0
	for _, seg := range segments {
		total += countMatches(seg.Text, rule)
	}
	return total
}

func countMatches(text string, rule Rule) int {
	if rule.Find == "" {
		return 0
	}
	if rule.CaseSensitive {
		return strings.Count(text, rule.Find)
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(rule.Find))
}
