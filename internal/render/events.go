package render

import (
	"html"
	"strings"

	"inkdash/internal/locale"
	"inkdash/internal/model"
)

const (
	dayOpenEvents   = `<div class="row align-items-start"><div class="col-md-12"><h2>`
	dayOpenNoEvents = `<div class="row align-items-start"><div class="col-md-12"><h2 class="event-time">`
	dayListOpen     = `</h2><ol class="list-unstyled">`
	dayClose        = `</ol></div></div><div class="row align-items-start"><div class="col-md-12"  style="height: 1px"></div></div>`
)

// EventBlock is the result of FormatEvents.
type EventBlock struct {
	HTML string
	// Lines is the number of headings plus event lines emitted.
	Lines int
}

// FormatEvents renders the event list for days [0, numDays) of date.
//
// One line of maxLines is reserved, so at most maxLines-1 headings and
// event lines are emitted. Emission stops as soon as that budget is used
// up; a day section that was opened is always closed.
func FormatEvents(date model.DateContext, days []model.EventDay, numDays int, details map[string]struct{}, maxLines int) EventBlock {
	var b strings.Builder
	budget := maxLines - 1
	lines := 0

	for i := 0; i < numDays && i < len(days); i++ {
		if lines >= budget {
			break
		}

		label := locale.DayLabel(date.Day(i), i)
		if len(days[i]) > 0 {
			b.WriteString(dayOpenEvents)
		} else {
			b.WriteString(dayOpenNoEvents)
		}
		b.WriteString(label)
		b.WriteString(dayListOpen)
		lines++

		for _, ev := range days[i] {
			if lines >= budget {
				break
			}
			b.WriteString(formatEvent(ev, details))
			lines++
		}

		b.WriteString(dayClose)
	}

	return EventBlock{HTML: b.String(), Lines: lines}
}

func formatEvent(ev model.Event, details map[string]struct{}) string {
	summary := html.EscapeString(ev.Summary)
	if ev.IsMultiday || ev.AllDay {
		return `<div class="event">` + summary + `</div>`
	}

	t := ShortTime(ev.Start, true)
	if _, ok := details[ev.Summary]; ok {
		t += " - " + ShortTime(ev.End, true)
	}
	return `<div class="event"><span class="event-time">` + t + `</span> ` + summary + `</div>`
}

// DetailSet builds the lookup used by FormatEvents from the configured
// calendar_details list.
func DetailSet(summaries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		set[s] = struct{}{}
	}
	return set
}
