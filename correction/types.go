package correction

import "github.com/skillsenselab/meetscribe/transcript"

// RuleConfidence grades how safe a deterministic replacement is.
type RuleConfidence string

const (
	// ConfidenceHigh marks a proper-noun replacement with at least one
	// unambiguous occurrence.
	ConfidenceHigh RuleConfidence = "high"
	// ConfidenceMedium marks a common word with many occurrences, where
	// collateral replacement is a risk.
	ConfidenceMedium RuleConfidence = "medium"
	// ConfidenceLow marks very short find/replace pairs that can match
	// inside unrelated words. They are still attempted.
	ConfidenceLow RuleConfidence = "low"
)

// Rule is a deterministic find/replace correction produced by the router.
// Immutable once emitted; discarded after one apply cycle.
type Rule struct {
	Find             string         `json:"find"`
	Replace          string         `json:"replace"`
	CaseSensitive    bool           `json:"caseSensitive"`
	EstimatedMatches int            `json:"estimatedMatches"`
	Confidence       RuleConfidence `json:"confidence"`
}

// RouteSummary aggregates routing statistics.
type RouteSummary struct {
	TotalCorrections      int     `json:"totalCorrections"`
	TotalSegmentsAffected int     `json:"totalSegmentsAffected"`
	PercentageAffected    float64 `json:"percentageAffected"`
}

// RouteResult is the outcome of classifying an instruction. Routing is a
// pure analysis step; it never mutates segments.
type RouteResult struct {
	// SimpleReplacements are rules with at least one match, ready to apply.
	SimpleReplacements []Rule `json:"simpleReplacements"`
	// ComplexCorrections holds residual instruction text requiring a
	// model-based rewrite, forwarded verbatim.
	ComplexCorrections []string `json:"complexCorrections"`
	// DroppedRules are parsed rules with zero matches, reported only
	// informationally.
	DroppedRules []Rule       `json:"droppedRules,omitempty"`
	Summary      RouteSummary `json:"summary"`
}

// DiffEntry records one changed segment for user review before commit.
type DiffEntry struct {
	SegmentIndex int    `json:"segmentIndex"`
	SpeakerTag   string `json:"speakerTag"`
	// Timestamp is the segment start formatted as M:SS.
	Timestamp string `json:"timestamp"`
	OldText   string `json:"oldText"`
	NewText   string `json:"newText"`
}

// PreviewSummary aggregates a preview's change counts.
type PreviewSummary struct {
	TotalChanges     int `json:"totalChanges"`
	AffectedSegments int `json:"affectedSegments"`
}

// Preview is the read-only result of a preview call.
type Preview struct {
	Diff    []DiffEntry    `json:"diff"`
	Summary PreviewSummary `json:"summary"`
}

// ApplyResponse is the result of a committed apply call.
type ApplyResponse struct {
	Success bool `json:"success"`
	// Transcription is the updated transcript record.
	Transcription *transcript.Transcript `json:"transcription"`
	// DeletedAnalysisIDs lists analyses actually removed during invalidation.
	DeletedAnalysisIDs []string `json:"deletedAnalysisIds"`
	// ClearedTranslations lists the language keys of translations that were
	// stored before the correction and are now cleared.
	ClearedTranslations []string `json:"clearedTranslations"`
}
