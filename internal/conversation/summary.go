package conversation

import "strings"

// summaryMarkers are the structural section markers expected in a finished
// onboarding summary: role/responsibilities, tools, time allocation, pain
// points, and the closing confirmation prompt.
var summaryMarkers = []string{
	"responsibilities",
	"tools",
	"time allocation",
	"pain points",
	"accurate",
}

// summaryMarkerMajority is the minimum number of markers that must be
// present simultaneously for a reply to count as a summary candidate.
const summaryMarkerMajority = 3

// IsSummaryCandidate reports whether a model reply looks like a finished
// onboarding summary, by counting how many of the fixed section markers it
// contains (case-insensitive).
//
// This is a heuristic, not a guarantee: ordinary conversation text that
// happens to mention several marker phrases can misfire, and a summary
// phrased without the expected headings can be missed. Callers surface the
// candidate for explicit user approval rather than acting on it.
func IsSummaryCandidate(replyText string) bool {
	lower := strings.ToLower(replyText)

	hits := 0
	for _, marker := range summaryMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return hits >= summaryMarkerMajority
}
