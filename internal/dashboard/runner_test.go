package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkdash/internal/battery"
	"inkdash/internal/model"
	"inkdash/internal/render"
)

type stubEvents struct {
	days []model.EventDay
	err  error
	got  model.DateContext
}

func (s *stubEvents) EventDays(_ context.Context, date model.DateContext, numDays int) ([]model.EventDay, error) {
	s.got = date
	if s.err != nil {
		return nil, s.err
	}
	return s.days[:numDays], nil
}

type stubWeather struct {
	snap model.WeatherSnapshot
	err  error
}

func (s stubWeather) Fetch(context.Context) (model.WeatherSnapshot, error) {
	return s.snap, s.err
}

type recordingRenderer struct {
	inputs []render.Input
	err    error
}

func (r *recordingRenderer) Format(_ context.Context, in render.Input) error {
	r.inputs = append(r.inputs, in)
	return r.err
}

type failingBattery struct{}

func (failingBattery) Read(context.Context) (battery.Status, error) {
	return battery.Unknown, errors.New("no i2c")
}

func settings() Settings {
	return Settings{
		NumDays:         3,
		MaxLines:        12,
		CalendarDetails: []string{"Gym"},
		ImagePath:       "/srv/dash.png",
		Location:        time.UTC,
	}
}

func TestRunPassesEverythingToRenderer(t *testing.T) {
	ev := &stubEvents{days: make([]model.EventDay, 5)}
	snap := model.WeatherSnapshot{Current: model.CurrentWeather{Temp: 3}, Daily: make([]model.DailyForecast, 3)}
	rr := &recordingRenderer{}
	r := NewRunner(settings(), ev, stubWeather{snap: snap}, rr, battery.Static(battery.Status{Percent: 64}))

	now := time.Date(2026, 10, 19, 23, 45, 0, 0, time.UTC)
	require.NoError(t, r.Run(context.Background(), now))

	require.Len(t, rr.inputs, 1)
	in := rr.inputs[0]
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), in.Date.Date)
	assert.Equal(t, in.Date, ev.got)
	assert.Len(t, in.Events, 3)
	assert.Equal(t, 3, in.NumDays)
	assert.Equal(t, 12, in.MaxLines)
	assert.Equal(t, "/srv/dash.png", in.ImagePath)
	assert.Equal(t, []string{"Gym"}, in.CalendarDetails)
	assert.Equal(t, 3.0, in.Current.Temp)

	st, ok := r.LastRun()
	require.True(t, ok)
	assert.Equal(t, "2026-10-19", st.Date)
	assert.Empty(t, st.Error)
	assert.Equal(t, 64, st.Battery.Percent)
}

func TestRunUsesConfiguredLocation(t *testing.T) {
	s := settings()
	s.Location = time.FixedZone("UTC+2", 2*60*60)
	ev := &stubEvents{days: make([]model.EventDay, 3)}
	r := NewRunner(s, ev, stubWeather{}, &recordingRenderer{}, nil)

	require.NoError(t, r.Run(context.Background(), time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 20, ev.got.Date.Day())
}

func TestRunStopsOnEventError(t *testing.T) {
	rr := &recordingRenderer{}
	r := NewRunner(settings(), &stubEvents{err: errors.New("offline")}, stubWeather{}, rr, nil)

	err := r.Run(context.Background(), time.Now())
	assert.ErrorContains(t, err, "offline")
	assert.Empty(t, rr.inputs)

	st, ok := r.LastRun()
	require.True(t, ok)
	assert.Contains(t, st.Error, "offline")
}

func TestRunStopsOnWeatherError(t *testing.T) {
	rr := &recordingRenderer{}
	r := NewRunner(settings(), &stubEvents{days: make([]model.EventDay, 3)}, stubWeather{err: errors.New("401")}, rr, nil)

	assert.Error(t, r.Run(context.Background(), time.Now()))
	assert.Empty(t, rr.inputs)
}

func TestRunIgnoresBatteryError(t *testing.T) {
	rr := &recordingRenderer{}
	r := NewRunner(settings(), &stubEvents{days: make([]model.EventDay, 3)}, stubWeather{}, rr, failingBattery{})

	require.NoError(t, r.Run(context.Background(), time.Now()))
	assert.Len(t, rr.inputs, 1)
}

func TestRunReturnsRendererError(t *testing.T) {
	rr := &recordingRenderer{err: render.ErrConfiguration}
	r := NewRunner(settings(), &stubEvents{days: make([]model.EventDay, 3)}, stubWeather{}, rr, nil)

	assert.ErrorIs(t, r.Run(context.Background(), time.Now()), render.ErrConfiguration)
}

func TestLastRunEmpty(t *testing.T) {
	r := NewRunner(settings(), nil, nil, nil, nil)
	_, ok := r.LastRun()
	assert.False(t, ok)
}
