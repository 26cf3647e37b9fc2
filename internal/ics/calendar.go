package ics

import (
	"context"
	"errors"
	"fmt"

	appLog "inkdash/internal/log"
	"inkdash/internal/model"
)

// Calendar combines several ICS subscriptions into per-day event lists.
type Calendar struct {
	fetcher *Fetcher
	sources []Source
}

// NewCalendar returns a Calendar reading sources through f.
func NewCalendar(f *Fetcher, sources []Source) *Calendar {
	return &Calendar{fetcher: f, sources: sources}
}

// EventDays fetches, parses and expands all sources and buckets the
// result into numDays days from date. A source that fails is skipped;
// the call only fails when every configured source failed.
func (c *Calendar) EventDays(ctx context.Context, date model.DateContext, numDays int) ([]model.EventDay, error) {
	feeds, fetchErrs := c.fetcher.FetchAll(ctx, c.sources)
	if len(c.sources) > 0 && len(feeds) == 0 {
		return nil, fmt.Errorf("ics: all sources failed: %w", errors.Join(fetchErrs...))
	}

	loc := date.Date.Location()
	var parsed []VEvent
	for _, feed := range feeds {
		evs, err := Parse(feed.Source.ID, feed.Body, loc)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", feed.Source.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	events, err := Expand(parsed, WindowFor(date, numDays))
	if err != nil {
		return nil, err
	}

	appLog.Info("calendar loaded",
		"sources", len(c.sources),
		"failed", len(fetchErrs),
		"events", len(events),
		"days", numDays,
	)
	return ByDay(date, events, numDays), nil
}
