package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T) time.Time {
	t.Helper()
	// A Wednesday.
	return time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
}

func at(base time.Time, h, m int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, base.Location())
}

func TestGenerateCandidatesFullFitAtClose(t *testing.T) {
	d := day(t)
	// Business 09:00-17:00 intersected with employee 09:00-13:00.
	w := Window{Start: at(d, 9, 0), End: at(d, 13, 0)}

	got := GenerateCandidates(w, 30*time.Minute, 30*time.Minute)

	want := []time.Time{
		at(d, 9, 0), at(d, 9, 30), at(d, 10, 0), at(d, 10, 30),
		at(d, 11, 0), at(d, 11, 30), at(d, 12, 0), at(d, 12, 30),
	}
	assert.Equal(t, want, got, "last start is 12:30 because 12:30+30m fits exactly")
}

func TestGenerateCandidatesServiceLongerThanWindow(t *testing.T) {
	d := day(t)
	w := Window{Start: at(d, 9, 0), End: at(d, 10, 0)}

	got := GenerateCandidates(w, 90*time.Minute, 30*time.Minute)
	assert.Empty(t, got)
}

func TestGenerateCandidatesDurationMonotonicity(t *testing.T) {
	d := day(t)
	w := Window{Start: at(d, 9, 0), End: at(d, 12, 0)}

	prev := len(GenerateCandidates(w, 15*time.Minute, 30*time.Minute))
	for _, duration := range []time.Duration{30, 45, 60, 90, 120, 180, 240} {
		n := len(GenerateCandidates(w, duration*time.Minute, 30*time.Minute))
		assert.LessOrEqual(t, n, prev, "duration %v", duration*time.Minute)
		prev = n
	}
}

func TestGenerateCandidatesInvalidInputs(t *testing.T) {
	d := day(t)
	w := Window{Start: at(d, 9, 0), End: at(d, 12, 0)}

	assert.Nil(t, GenerateCandidates(w, 0, 30*time.Minute))
	assert.Nil(t, GenerateCandidates(w, 30*time.Minute, 0))
	assert.Nil(t, GenerateCandidates(Window{Start: at(d, 12, 0), End: at(d, 9, 0)}, 30*time.Minute, 30*time.Minute))
}

func TestFilterAvailableNoConflictIdentity(t *testing.T) {
	d := day(t)
	w := Window{Start: at(d, 9, 0), End: at(d, 13, 0)}
	candidates := GenerateCandidates(w, 30*time.Minute, 30*time.Minute)

	got := FilterAvailable(candidates, nil, 30*time.Minute)
	assert.Equal(t, candidates, got)

	got = FilterAvailable(candidates, []Interval{}, 30*time.Minute)
	assert.Equal(t, candidates, got)
}

func TestFilterAvailableHalfOpenBoundaries(t *testing.T) {
	d := day(t)
	w := Window{Start: at(d, 9, 0), End: at(d, 13, 0)}
	candidates := GenerateCandidates(w, 30*time.Minute, 30*time.Minute)

	// One existing appointment 10:00-10:30.
	busy := []Interval{{Start: at(d, 10, 0), End: at(d, 10, 30)}}

	got := FilterAvailable(candidates, busy, 30*time.Minute)

	// Only 10:00 drops: 09:30 ends exactly at 10:00 and 10:30 starts
	// exactly at the appointment end, neither overlaps.
	want := []time.Time{
		at(d, 9, 0), at(d, 9, 30), at(d, 10, 30),
		at(d, 11, 0), at(d, 11, 30), at(d, 12, 0), at(d, 12, 30),
	}
	assert.Equal(t, want, got)
}

func TestFilterAvailablePreservesOrderAndInputs(t *testing.T) {
	d := day(t)
	candidates := []time.Time{at(d, 9, 0), at(d, 9, 30), at(d, 10, 0)}
	busy := []Interval{{Start: at(d, 9, 15), End: at(d, 9, 45)}}

	got := FilterAvailable(candidates, busy, 30*time.Minute)

	require.Len(t, got, 1)
	assert.Equal(t, at(d, 10, 0), got[0])
	// Inputs untouched.
	assert.Equal(t, []time.Time{at(d, 9, 0), at(d, 9, 30), at(d, 10, 0)}, candidates)
	assert.Equal(t, []Interval{{Start: at(d, 9, 15), End: at(d, 9, 45)}}, busy)
}

func TestAvailableStartsIdempotent(t *testing.T) {
	d := day(t)
	windows := []Window{
		{Start: at(d, 9, 0), End: at(d, 12, 0)},
		{Start: at(d, 14, 0), End: at(d, 17, 0)},
	}
	busy := []Interval{{Start: at(d, 10, 0), End: at(d, 11, 0)}}

	first := AvailableStarts(windows, 30*time.Minute, 30*time.Minute, busy)
	second := AvailableStarts(windows, 30*time.Minute, 30*time.Minute, busy)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// Split shift output stays ascending across windows.
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i].After(first[i-1]))
	}
}
