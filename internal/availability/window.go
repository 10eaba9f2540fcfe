// Package availability computes bookable time slots from weekly working
// schedules and existing appointments. It is pure: no I/O, no clock, no
// shared state, safe for concurrent use.
package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/turnify/turnify-api/internal/models"
)

// Window is a concrete open interval on a calendar date.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindows intersects the business and employee weekly schedules
// for the weekday of date and returns the resulting working windows,
// coalesced and ordered by start. An empty result means no availability
// that day; it is never an error. Windows marked closed, windows for
// other weekdays, and malformed clock values are ignored.
//
// date must be midnight in the timezone the schedules are expressed in.
func ResolveWindows(business, employee []models.WorkingWindow, date time.Time) []Window {
	day := int(date.Weekday())

	bw := dayWindows(business, day, date)
	ew := dayWindows(employee, day, date)
	if len(bw) == 0 || len(ew) == 0 {
		return nil
	}

	var out []Window
	for _, b := range bw {
		for _, e := range ew {
			start := maxTime(b.Start, e.Start)
			end := minTime(b.End, e.End)
			if start.Before(end) {
				out = append(out, Window{Start: start, End: end})
			}
		}
	}
	return coalesce(out)
}

func dayWindows(windows []models.WorkingWindow, day int, date time.Time) []Window {
	var out []Window
	for _, w := range windows {
		if w.DayOfWeek != day || w.Closed {
			continue
		}
		start, err := onDate(date, w.StartTime)
		if err != nil {
			continue
		}
		end, err := onDate(date, w.EndTime)
		if err != nil {
			continue
		}
		if start.Before(end) {
			out = append(out, Window{Start: start, End: end})
		}
	}
	return out
}

// onDate places a "HH:MM" clock value on the given date.
func onDate(date time.Time, clock string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("clock %q out of range", clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

// coalesce sorts windows and merges overlapping or adjacent ones so the
// slot walk never emits the same start twice.
func coalesce(windows []Window) []Window {
	if len(windows) < 2 {
		return windows
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })

	out := windows[:1]
	for _, w := range windows[1:] {
		last := &out[len(out)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
