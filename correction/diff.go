package correction

import "github.com/skillsenselab/meetscribe/transcript"

// GenerateDiff compares original and corrected segment arrays positionally
// and emits one entry per segment whose text differs. The comparison is an
// exact string match with no whitespace normalization; identical segments
// are omitted entirely, so the diff is a sparse change list.
//
// SpeakerTag and the M:SS timestamp mirror the original segment.
func GenerateDiff(original, corrected []transcript.SpeakerSegment) []DiffEntry {
	n := len(original)
	if len(corrected) < n {
		n = len(corrected)
	}

	diff := make([]DiffEntry, 0)
	for i := 0; i < n; i++ {
		if original[i].Text == corrected[i].Text {
			continue
		}
		diff = append(diff, DiffEntry{
			SegmentIndex: i,
			SpeakerTag:   original[i].SpeakerTag,
			Timestamp:    transcript.FormatTime(original[i].StartTime),
			OldText:      original[i].Text,
			NewText:      corrected[i].Text,
		})
	}
	return diff
}
