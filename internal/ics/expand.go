package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "inkdash/internal/log"
	"inkdash/internal/model"
)

const defaultMaxInstances = 1000

// Window is the half-open range [Start, End) events are expanded into.
type Window struct {
	Start time.Time
	End   time.Time
	// Location is the display zone events are converted to. Nil means
	// the zone of Start.
	Location *time.Location
	// MaxInstances caps the occurrences of one recurring event. Zero means
	// defaultMaxInstances.
	MaxInstances int
}

// Expand turns parsed VEVENTs into concrete events overlapping w,
// applying RRULE, EXDATE and RECURRENCE-ID overrides.
func Expand(events []VEvent, w Window) ([]model.Event, error) {
	if !w.End.After(w.Start) {
		return nil, errors.New("expand: window end is not after start")
	}
	if w.MaxInstances <= 0 {
		w.MaxInstances = defaultMaxInstances
	}
	if w.Location == nil {
		w.Location = w.Start.Location()
	}

	type key struct{ source, uid string }
	overrides := make(map[key][]VEvent)
	var masters []VEvent
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			k := key{ev.SourceID, ev.UID}
			overrides[k] = append(overrides[k], ev)
			continue
		}
		masters = append(masters, ev)
	}

	var out []model.Event
	for _, ev := range masters {
		k := key{ev.SourceID, ev.UID}
		var unmatched []VEvent
		if ev.RRule == "" {
			inst := ev
			unmatched = overrides[k]
			if i := findOverride(unmatched, ev.Start); i >= 0 {
				inst = unmatched[i]
				unmatched = without(unmatched, i)
			}
			if overlaps(inst.Start, inst.End, w) {
				out = append(out, toEvent(inst, w.Location))
			}
		} else {
			var evs []model.Event
			evs, unmatched = expandRecurring(ev, overrides[k], w)
			out = append(out, evs...)
		}
		out = append(out, movedInto(unmatched, w)...)
		delete(overrides, k)
	}

	// Overrides left here have no master in this feed.
	for _, ev := range events {
		if ev.RecurrenceID == nil {
			continue
		}
		k := key{ev.SourceID, ev.UID}
		if ovs, ok := overrides[k]; ok {
			out = append(out, movedInto(ovs, w)...)
			delete(overrides, k)
		}
	}
	return out, nil
}

// expandRecurring returns the instances of ev overlapping w and the
// overrides that matched none of the generated instances.
func expandRecurring(ev VEvent, overrides []VEvent, w Window) ([]model.Event, []VEvent) {
	opt, err := rrule.StrToROptionInLocation(ev.RRule, ev.Start.Location())
	if err != nil {
		appLog.Warn("expand: bad RRULE", "uid", ev.UID, "rrule", ev.RRule, "reason", err)
		return nil, overrides
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Warn("expand: bad RRULE", "uid", ev.UID, "rrule", ev.RRule, "reason", err)
		return nil, overrides
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	// All-day instances last whole calendar days, DST or not.
	allDays := 0
	if ev.AllDay {
		allDays = calendarDays(ev.Start, ev.End)
	}

	// Step back by one duration, plus an hour of DST slack, so instances
	// that started before the window but are still running are included.
	starts := set.Between(w.Start.Add(-dur-time.Hour), w.End, true)
	if len(starts) > w.MaxInstances {
		appLog.Warn("expand: instances truncated", "uid", ev.UID, "cap", w.MaxInstances)
		starts = starts[:w.MaxInstances]
	}

	pending := append([]VEvent(nil), overrides...)
	var out []model.Event
	for _, s := range starts {
		inst := ev
		inst.Start = s
		if ev.AllDay {
			inst.End = s.AddDate(0, 0, allDays)
		} else {
			inst.End = s.Add(dur)
		}
		if i := findOverride(pending, s); i >= 0 {
			inst = pending[i]
			pending = without(pending, i)
		}
		if overlaps(inst.Start, inst.End, w) {
			out = append(out, toEvent(inst, w.Location))
		}
	}
	return out, pending
}

// movedInto returns the overrides whose own start and end overlap w.
// They cover instances moved in from outside the window and overrides
// whose master is missing.
func movedInto(overrides []VEvent, w Window) []model.Event {
	var out []model.Event
	for _, o := range overrides {
		if overlaps(o.Start, o.End, w) {
			out = append(out, toEvent(o, w.Location))
		}
	}
	return out
}

func findOverride(overrides []VEvent, start time.Time) int {
	for i, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return i
		}
	}
	return -1
}

func without(evs []VEvent, i int) []VEvent {
	out := make([]VEvent, 0, len(evs)-1)
	out = append(out, evs[:i]...)
	return append(out, evs[i+1:]...)
}

// calendarDays counts the dates between start and end, at least one.
func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.In(start.Location()).Date()
	n := int(time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Sub(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)) / (24 * time.Hour))
	if n < 1 {
		return 1
	}
	return n
}

// overlaps treats zero-length events as occupying their start instant.
func overlaps(start, end time.Time, w Window) bool {
	if !end.After(start) {
		return !start.Before(w.Start) && start.Before(w.End)
	}
	return start.Before(w.End) && end.After(w.Start)
}

func toEvent(ev VEvent, loc *time.Location) model.Event {
	return model.Event{
		SourceID: ev.SourceID,
		UID:      ev.UID,
		Summary:  ev.Summary,
		Start:    ev.Start.In(loc),
		End:      ev.End.In(loc),
		AllDay:   ev.AllDay,
	}
}
