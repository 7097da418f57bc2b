package sim

import "math"

// Stats are the aggregate token counts for one message list. ErrorPercent is
// set only when a positive estimate was supplied; it stays unclamped and may
// be negative, as a diagnostic against the prior estimate.
type Stats struct {
	Total        int
	Prompt       int
	Completion   int
	Average      int
	ErrorPercent *float64
}

// ComputeStats sums token usage across messages. Missing usage counts as
// zero; the result is independent of message order.
func ComputeStats(messages []Message, estimated int) Stats {
	var st Stats
	for _, m := range messages {
		if m.Usage == nil {
			continue
		}
		st.Total += m.Usage.Total
		st.Prompt += m.Usage.Prompt
		st.Completion += m.Usage.Completion
	}
	if len(messages) > 0 {
		st.Average = int(math.Round(float64(st.Total) / float64(len(messages))))
	}
	if estimated > 0 {
		pct := (float64(st.Total) - float64(estimated)) / float64(estimated) * 100
		st.ErrorPercent = &pct
	}
	return st
}
