package transcript

import (
	"fmt"
	"math"
)

// MsToSeconds converts milliseconds to seconds.
func MsToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}

// SecondsToMs converts seconds to milliseconds.
func SecondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}

// FormatTime formats a duration in seconds as "M:SS". Minutes are unbounded
// and seconds are zero-padded, so 3661s renders as "61:01".
func FormatTime(seconds float64) string {
	total := int(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
