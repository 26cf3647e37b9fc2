package ics

import (
	"sort"

	"inkdash/internal/model"
)

// WindowFor is the expansion window covering numDays days from date.
func WindowFor(date model.DateContext, numDays int) Window {
	return Window{Start: date.Day(0), End: date.Day(numDays), Location: date.Date.Location()}
}

// ByDay distributes events over numDays days starting at date. An event
// is listed on every day it overlaps. Within a day, all-day and
// multi-day events come first, then timed events by start time.
func ByDay(date model.DateContext, events []model.Event, numDays int) []model.EventDay {
	days := make([]model.EventDay, numDays)
	for i := range days {
		days[i] = model.EventDay{}
	}

	for _, ev := range events {
		ev.IsMultiday = spansDays(ev)
		for i := 0; i < numDays; i++ {
			if overlaps(ev.Start, ev.End, Window{Start: date.Day(i), End: date.Day(i + 1)}) {
				days[i] = append(days[i], ev)
			}
		}
	}

	for _, d := range days {
		sort.SliceStable(d, func(a, b int) bool {
			fa, fb := d[a].AllDay || d[a].IsMultiday, d[b].AllDay || d[b].IsMultiday
			if fa != fb {
				return fa
			}
			if !d[a].Start.Equal(d[b].Start) {
				return d[a].Start.Before(d[b].Start)
			}
			return d[a].Summary < d[b].Summary
		})
	}
	return days
}

// spansDays reports whether the event covers more than one calendar day.
// End is exclusive, so an all-day event ending at the next midnight is a
// single day.
func spansDays(ev model.Event) bool {
	if !ev.End.After(ev.Start) {
		return false
	}
	last := ev.End.Add(-1)
	sy, sm, sd := ev.Start.Date()
	ly, lm, ld := last.In(ev.Start.Location()).Date()
	return sy != ly || sm != lm || sd != ld
}
