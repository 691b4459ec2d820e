package asr

import "strings"

const (
	// maxWordBoostEntries bounds the vocabulary boost list sent to providers.
	maxWordBoostEntries = 100
	// minWordBoostLength excludes short tokens that add noise.
	minWordBoostLength = 4
)

// SubmitOptions holds recognition options consumed by providers.
type SubmitOptions struct {
	// SpeakerLabels enables speaker diarization.
	SpeakerLabels bool `json:"speaker_labels"`
	// LanguageDetection enables automatic language detection.
	LanguageDetection bool `json:"language_detection"`
	// LanguageConfidenceThreshold is the minimum confidence for detected
	// languages, 0 for the provider default.
	LanguageConfidenceThreshold float64 `json:"language_confidence_threshold,omitempty"`
	// WordBoost is a bounded vocabulary list derived from user context.
	WordBoost []string `json:"word_boost,omitempty"`
}

// BuildWordBoost derives a vocabulary boost list from free-text meeting
// context. Entries shorter than 4 characters are excluded, duplicates are
// collapsed case-insensitively, and the list is capped at 100 entries in
// order of first appearance.
func BuildWordBoost(context string) []string {
	if strings.TrimSpace(context) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var boost []string
	for _, tok := range strings.Fields(context) {
		word := strings.Trim(tok, ".,;:!?()[]{}\"'")
		if len(word) < minWordBoostLength {
			continue
		}
		key := strings.ToLower(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		boost = append(boost, word)
		if len(boost) == maxWordBoostEntries {
			break
		}
	}
	return boost
}
