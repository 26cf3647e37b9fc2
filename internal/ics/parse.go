package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "inkdash/internal/log"
)

// VEvent is a VEVENT reduced to what the dashboard needs. Recurrences are
// not expanded yet.
type VEvent struct {
	SourceID string
	UID      string
	Summary  string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time

	// RecurrenceID is set on VEVENTs that override one instance of a
	// recurring event.
	RecurrenceID *time.Time
}

// Parse decodes an ICS payload. Events that cannot be read are logged and
// skipped.
func Parse(sourceID string, body []byte, loc *time.Location) ([]VEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []VEvent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(sourceID, ve, loc)
		if err != nil {
			appLog.Warn("ics vevent skipped", "id", sourceID, "reason", err)
			continue
		}
		out = append(out, ev)
	}

	appLog.Debug("ics parsed", "id", sourceID, "events", len(out))
	return out, nil
}

func parseVEvent(sourceID string, ve *ical.VEvent, loc *time.Location) (VEvent, error) {
	ev := VEvent{SourceID: sourceID}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	ev.AllDay = isDateValue(dtStart)

	if ev.AllDay {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return ev, err
		}
		ev.Start = midnight(start, loc)
		end, err := ve.GetAllDayEndAt()
		if err != nil || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		ev.End = midnight(end, loc)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return ev, err
		}
		ev.Start = start
		end, err := ve.GetEndAt()
		if err != nil || end.Before(start) {
			end = start
		}
		ev.End = end
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tzidOf(p, loc)); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, tzidOf(p, loc)); err == nil {
			ev.RecurrenceID = &t
		}
	}

	return ev, nil
}

// isDateValue reports whether DTSTART carries a DATE rather than a
// DATE-TIME.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzidOf(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return fallback
}

// parseICSTime parses DATE, floating DATE-TIME and UTC DATE-TIME values.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

// midnight re-anchors a calendar date in loc; all-day events have no zone
// of their own.
func midnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
