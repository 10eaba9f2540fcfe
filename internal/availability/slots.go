package availability

import "time"

// Interval is a half-open occupied time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// GenerateCandidates walks the window in step increments and returns
// every start time t with window.Start <= t and t+duration <= window.End.
// The last candidate is therefore the latest step at which the full
// service still fits before closing. The result is ascending and empty
// (never an error) when the service does not fit at all.
func GenerateCandidates(window Window, duration, step time.Duration) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !window.End.After(window.Start) {
		return nil
	}

	var out []time.Time
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// FilterAvailable removes candidates whose occupancy [t, t+duration)
// overlaps any busy interval. Order is preserved and inputs are not
// mutated; an empty busy set returns every candidate.
func FilterAvailable(candidates []time.Time, busy []Interval, duration time.Duration) []time.Time {
	out := make([]time.Time, 0, len(candidates))
	for _, t := range candidates {
		if !overlapsAny(t, t.Add(duration), busy) {
			out = append(out, t)
		}
	}
	return out
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// AvailableStarts composes the walk over several working windows,
// filtering each against the busy set. Windows are assumed coalesced
// and ordered, as returned by ResolveWindows, so the output is ascending
// with no duplicates.
func AvailableStarts(windows []Window, duration, step time.Duration, busy []Interval) []time.Time {
	var out []time.Time
	for _, w := range windows {
		out = append(out, FilterAvailable(GenerateCandidates(w, duration, step), busy, duration)...)
	}
	return out
}
