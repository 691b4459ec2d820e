package correction

import (
	"regexp"
	"strings"

	"github.com/skillsenselab/meetscribe/errors"
	"github.com/skillsenselab/meetscribe/transcript"
)

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	genericPrefix  = regexp.MustCompile(`(?i)^speaker\s+\S+\s*:\s*`)
)

// Reassemble maps a corrected full-text transcript back onto the original
// segment array. The text is split into blank-line-separated speaker blocks
// and each block is re-attached to the original segment at the same sequence
// position, preserving SpeakerTag, StartTime, EndTime, and Confidence.
//
// A block count that differs from the segment count is a
// REASSEMBLY_MISMATCH: the correction is rejected rather than guessing an
// alignment, since silent misalignment would corrupt timestamps.
func Reassemble(original []transcript.SpeakerSegment, correctedText string) ([]transcript.SpeakerSegment, error) {
	blocks := splitBlocks(correctedText)
	if len(blocks) != len(original) {
		return nil, errors.ReassemblyMismatch(len(original), len(blocks))
	}

	corrected := transcript.CloneSegments(original)
	for i, block := range blocks {
		corrected[i].Text = stripSpeakerPrefix(block, original[i].SpeakerTag)
	}
	return corrected, nil
}

func splitBlocks(text string) []string {
	raw := blockSeparator.Split(strings.TrimSpace(text), -1)
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// stripSpeakerPrefix removes the leading "Speaker X:" label from a block.
// The original segment's tag is matched case-insensitively first; a generic
// speaker prefix is the fallback for models that renumber labels.
func stripSpeakerPrefix(block, speakerTag string) string {
	prefix := speakerTag + ":"
	if len(block) >= len(prefix) && strings.EqualFold(block[:len(prefix)], prefix) {
		return strings.TrimSpace(block[len(prefix):])
	}
	if loc := genericPrefix.FindStringIndex(block); loc != nil {
		return strings.TrimSpace(block[loc[1]:])
	}
	return block
}
