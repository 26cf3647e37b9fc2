package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inkdash/internal/model"
)

var monday = model.NewDateContext(time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC))

func timed(summary string, day, h, m, dur int) model.Event {
	start := monday.Day(day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	return model.Event{Summary: summary, Start: start, End: start.Add(time.Duration(dur) * time.Minute)}
}

func countLines(html string) int {
	return strings.Count(html, "<h2") + strings.Count(html, `<div class="event">`)
}

func TestFormatEventsRoundTrip(t *testing.T) {
	days := []model.EventDay{
		{timed("Gym", 0, 7, 0, 90), timed("Dentist", 0, 14, 30, 30)},
		{},
		{}, {}, {},
	}

	block := FormatEvents(monday, days, 5, DetailSet([]string{"Gym"}), 20)

	sections := strings.Split(block.HTML, dayClose)
	assert.Len(t, sections, 6)
	assert.Contains(t, sections[0], "<h2>Heute</h2>")
	assert.Contains(t, sections[0], `<span class="event-time">7:00 - 8:30</span> Gym`)
	assert.Contains(t, sections[0], `<span class="event-time">14:30</span> Dentist`)
	assert.NotContains(t, sections[0], "14:30 -")
	assert.Contains(t, sections[1], `<h2 class="event-time">Dienstag</h2>`)
	assert.Equal(t, 7, block.Lines)
}

func TestFormatEventsAllDayAndMultiday(t *testing.T) {
	days := []model.EventDay{{
		{Summary: "Urlaub", AllDay: true, Start: monday.Day(0), End: monday.Day(1)},
		{Summary: "Messe", IsMultiday: true, Start: monday.Day(0).Add(9 * time.Hour), End: monday.Day(2)},
	}}

	block := FormatEvents(monday, days, 1, DetailSet([]string{"Messe"}), 10)

	assert.Contains(t, block.HTML, `<div class="event">Urlaub</div>`)
	assert.Contains(t, block.HTML, `<div class="event">Messe</div>`)
	assert.NotContains(t, block.HTML, "span")
}

func TestFormatEventsEscapesSummary(t *testing.T) {
	days := []model.EventDay{{{Summary: "<b>Tom & Jerry</b>", AllDay: true}}}

	block := FormatEvents(monday, days, 1, nil, 10)

	assert.Contains(t, block.HTML, "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;")
}

func TestFormatEventsLineBudget(t *testing.T) {
	days := make([]model.EventDay, 5)
	for i := range days {
		for j := 0; j < 3; j++ {
			days[i] = append(days[i], timed("Termin", i, 8+j, 0, 60))
		}
	}

	for maxLines := 0; maxLines <= 25; maxLines++ {
		block := FormatEvents(monday, days, 5, nil, maxLines)

		budget := max(maxLines-1, 0)
		assert.LessOrEqual(t, block.Lines, budget, "maxLines=%d", maxLines)
		assert.Equal(t, block.Lines, countLines(block.HTML), "maxLines=%d", maxLines)
		assert.Equal(t, strings.Count(block.HTML, "<h2"), strings.Count(block.HTML, dayClose),
			"every opened day must be closed, maxLines=%d", maxLines)
	}
}

func TestFormatEventsTruncatesMidDay(t *testing.T) {
	days := []model.EventDay{
		{timed("A", 0, 8, 0, 30), timed("B", 0, 9, 0, 30), timed("C", 0, 10, 0, 30)},
		{timed("D", 1, 8, 0, 30)},
	}

	// budget 3: heading + A + B
	block := FormatEvents(monday, days, 2, nil, 4)

	assert.Equal(t, 3, block.Lines)
	assert.Contains(t, block.HTML, "> B</div>")
	assert.NotContains(t, block.HTML, "> C</div>")
	assert.NotContains(t, block.HTML, "Dienstag")
	assert.True(t, strings.HasSuffix(block.HTML, dayClose))
}

func TestFormatEventsStopsAtNumDays(t *testing.T) {
	days := []model.EventDay{{}, {}, {}}

	block := FormatEvents(monday, days, 2, nil, 50)

	assert.Equal(t, 2, block.Lines)
	assert.NotContains(t, block.HTML, "Mittwoch")
}
