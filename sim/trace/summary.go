package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalSelections  int
	TotalFeedback    int
	UniquePaths      int
	PathDistribution map[int]int    // path -> selections mapped to it
	FeedbackCounts   map[string]int // feedback kind -> count
	SourceCounts     map[string]int // REPS selection branch -> count
	MeanMql          float64        // over feedback that carried a level
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PathDistribution: make(map[int]int),
		FeedbackCounts:   make(map[string]int),
		SourceCounts:     make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalSelections = len(st.Selections)
	for _, s := range st.Selections {
		summary.PathDistribution[s.Path]++
		if s.Source != "" {
			summary.SourceCounts[s.Source]++
		}
	}

	summary.TotalFeedback = len(st.Feedbacks)
	mqlSum, mqlCount := 0, 0
	for _, f := range st.Feedbacks {
		summary.FeedbackCounts[f.Feedback]++
		if f.HasMql {
			mqlSum += int(f.Mql)
			mqlCount++
		}
	}
	if mqlCount > 0 {
		summary.MeanMql = float64(mqlSum) / float64(mqlCount)
	}

	summary.UniquePaths = len(summary.PathDistribution)

	return summary
}
