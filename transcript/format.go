package transcript

import "strings"

// FormatWithSpeakers renders segments as "{speakerTag}: {text}" blocks
// separated by blank lines. This is the exact format exchanged with the
// rewrite provider, so reassembly depends on it.
func FormatWithSpeakers(segments []SpeakerSegment) string {
	if len(segments) == 0 {
		return ""
	}
	blocks := make([]string, len(segments))
	for i, seg := range segments {
		blocks[i] = seg.SpeakerTag + ": " + seg.Text
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// PlainText renders segments as plain text without speaker attribution.
func PlainText(segments []SpeakerSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
