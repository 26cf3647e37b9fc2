package model

import "time"

// DateContext is the calendar date a dashboard is rendered for. Only the
// date part is meaningful; Day normalizes to local midnight.
type DateContext struct {
	Date time.Time
}

// NewDateContext truncates t to midnight in t's location.
func NewDateContext(t time.Time) DateContext {
	return DateContext{Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

// Day returns the date offset by n days.
func (d DateContext) Day(n int) time.Time {
	return d.Date.AddDate(0, 0, n)
}

// Condition is one entry of a weather "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather holds the current conditions.
type CurrentWeather struct {
	Dt      int64       `json:"dt"`
	Temp    float64     `json:"temp"`
	Weather []Condition `json:"weather"`
}

// HourlyForecast is one hourly forecast slot.
type HourlyForecast struct {
	Dt      int64       `json:"dt"`
	Temp    float64     `json:"temp"`
	Pop     float64     `json:"pop"`
	Weather []Condition `json:"weather"`
}

// DailyTemp is the temperature range of a daily forecast.
type DailyTemp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DailyForecast is one daily forecast entry. Pop is 0..1.
type DailyForecast struct {
	Dt      int64       `json:"dt"`
	Temp    DailyTemp   `json:"temp"`
	Pop     float64     `json:"pop"`
	Weather []Condition `json:"weather"`
}

// WeatherSnapshot mirrors the current/hourly/daily parts of a One Call
// response.
type WeatherSnapshot struct {
	Current CurrentWeather   `json:"current"`
	Hourly  []HourlyForecast `json:"hourly"`
	Daily   []DailyForecast  `json:"daily"`
}

// Event is a single calendar entry as shown on the dashboard.
type Event struct {
	SourceID string
	UID      string

	Summary string
	Start   time.Time
	End     time.Time

	IsMultiday bool
	AllDay     bool
}

// EventDay holds the events of one day of the display window.
type EventDay []Event
