// Package dashboard wires the data sources to the formatter for a single
// render run.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inkdash/internal/battery"
	appLog "inkdash/internal/log"
	"inkdash/internal/model"
	"inkdash/internal/render"
)

// EventSource yields one EventDay per day starting at date.
type EventSource interface {
	EventDays(ctx context.Context, date model.DateContext, numDays int) ([]model.EventDay, error)
}

// WeatherSource yields the current weather and forecasts.
type WeatherSource interface {
	Fetch(ctx context.Context) (model.WeatherSnapshot, error)
}

// Renderer formats and captures the dashboard.
type Renderer interface {
	Format(ctx context.Context, in render.Input) error
}

// Settings are the per-run parameters taken from the config.
type Settings struct {
	NumDays         int
	MaxLines        int
	CalendarDetails []string
	ImagePath       string
	Location        *time.Location
}

// RunStatus describes the most recent run.
type RunStatus struct {
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Date     string         `json:"date"`
	Error    string         `json:"error,omitempty"`
	Battery  battery.Status `json:"battery"`
}

// Runner performs dashboard runs. Runs are serialized; a run started
// while another is in progress waits for it.
type Runner struct {
	settings Settings
	events   EventSource
	weather  WeatherSource
	renderer Renderer
	battery  battery.Reader

	runMu sync.Mutex

	statusMu sync.RWMutex
	last     *RunStatus
}

// NewRunner constructs a Runner. bat may be nil.
func NewRunner(s Settings, events EventSource, weather WeatherSource, r Renderer, bat battery.Reader) *Runner {
	if s.Location == nil {
		s.Location = time.Local
	}
	if bat == nil {
		bat = battery.Static(battery.Unknown)
	}
	return &Runner{settings: s, events: events, weather: weather, renderer: r, battery: bat}
}

// Run renders the dashboard for the calendar date of now.
func (r *Runner) Run(ctx context.Context, now time.Time) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := time.Now()
	date := model.NewDateContext(now.In(r.settings.Location))
	status := RunStatus{Started: started, Date: date.Date.Format("2006-01-02")}

	err := r.run(ctx, date, &status)

	status.Duration = time.Since(started)
	if err != nil {
		status.Error = err.Error()
		appLog.Error("dashboard run failed", err, "date", status.Date)
	} else {
		appLog.Info("dashboard run finished", "date", status.Date, "duration", status.Duration.Round(time.Millisecond))
	}

	r.statusMu.Lock()
	r.last = &status
	r.statusMu.Unlock()
	return err
}

func (r *Runner) run(ctx context.Context, date model.DateContext, status *RunStatus) error {
	days, err := r.events.EventDays(ctx, date, r.settings.NumDays)
	if err != nil {
		return fmt.Errorf("dashboard: load events: %w", err)
	}

	snap, err := r.weather.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: load weather: %w", err)
	}

	bat, err := r.battery.Read(ctx)
	if err != nil {
		appLog.Warn("battery read failed", "reason", err)
	} else {
		appLog.Info("battery status", "percent", bat.Percent, "voltage_mv", bat.VoltageMv)
	}
	status.Battery = bat

	return r.renderer.Format(ctx, render.Input{
		Date:            date,
		Current:         snap.Current,
		Hourly:          snap.Hourly,
		Daily:           snap.Daily,
		Events:          days,
		NumDays:         r.settings.NumDays,
		ImagePath:       r.settings.ImagePath,
		CalendarDetails: r.settings.CalendarDetails,
		MaxLines:        r.settings.MaxLines,
	})
}

// LastRun returns the status of the most recent run, if any.
func (r *Runner) LastRun() (RunStatus, bool) {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	if r.last == nil {
		return RunStatus{}, false
	}
	return *r.last, true
}
