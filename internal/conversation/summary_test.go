package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSummaryCandidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "full structured summary",
			text: `Role & Responsibilities: marketing lead.
Tools & Platforms: Canva, Mailchimp.
Time Allocation: 40% campaigns.
Pain Points: approvals are slow.
Does this look accurate?`,
			want: true,
		},
		{
			name: "exactly at majority",
			text: "Your responsibilities include X. Tools: Y. Pain points: Z.",
			want: true,
		},
		{
			name: "ordinary reply",
			text: "Interesting! What tools do you use every day?",
			want: false,
		},
		{
			name: "empty",
			text: "",
			want: false,
		},
		{
			name: "case insensitive",
			text: "RESPONSIBILITIES... TOOLS... TIME ALLOCATION...",
			want: true,
		},
		{
			// Known false positive: chatty text that happens to mention a
			// majority of the marker phrases trips the heuristic. Pinned
			// here as the documented approximation, not fixed.
			name: "false positive on marker-dense chat",
			text: "Your responsibilities sound broad! Which tools help most with time allocation?",
			want: true,
		},
		{
			// Known false negative: a genuine summary phrased without the
			// expected section headings is missed.
			name: "false negative on unstructured summary",
			text: "To recap: you lead design, mostly in Figma, and reviews frustrate you.",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSummaryCandidate(tt.text))
		})
	}
}

func TestIsSummaryCandidate_Deterministic(t *testing.T) {
	text := "Responsibilities, tools, pain points."
	assert.Equal(t, IsSummaryCandidate(text), IsSummaryCandidate(text))
}
