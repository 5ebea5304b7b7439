package trace

// TransferSummary aggregates statistics from a TransferTrace.
type TransferSummary struct {
	Assigned     int
	ByReason     map[Reason]int
	Dropped      int
	MeanDistance float64 // over non-random assignments
	MaxDistance  int
}

// Summarize computes aggregate statistics from a TransferTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *TransferTrace) *TransferSummary {
	summary := &TransferSummary{
		ByReason: make(map[Reason]int),
	}
	if t == nil {
		return summary
	}

	summary.Assigned = len(t.Records)
	summary.Dropped = len(t.Dropped)

	total, counted := 0, 0
	for _, r := range t.Records {
		summary.ByReason[r.Reason]++
		if r.Reason == ReasonRandom {
			continue
		}
		total += r.Distance
		counted++
		if r.Distance > summary.MaxDistance {
			summary.MaxDistance = r.Distance
		}
	}
	if counted > 0 {
		summary.MeanDistance = float64(total) / float64(counted)
	}
	return summary
}
