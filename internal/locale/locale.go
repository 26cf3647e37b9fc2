// Package locale maps English weekday and month names to the German
// labels printed on the dashboard.
package locale

import "time"

// Today replaces the weekday name of day offset 0 in event headings.
const Today = "Heute"

var weekdays = map[string]string{
	"Monday":    "Montag",
	"Tuesday":   "Dienstag",
	"Wednesday": "Mittwoch",
	"Thursday":  "Donnerstag",
	"Friday":    "Freitag",
	"Saturday":  "Samstag",
	"Sunday":    "Sonntag",
}

var months = map[string]string{
	"January":   "Januar",
	"February":  "Februar",
	"March":     "März",
	"April":     "April",
	"May":       "Mai",
	"June":      "Juni",
	"July":      "Juli",
	"August":    "August",
	"September": "September",
	"October":   "Oktober",
	"November":  "November",
	"December":  "Dezember",
}

// Weekday translates an English weekday name. Unknown names are returned
// unchanged.
func Weekday(en string) string {
	if de, ok := weekdays[en]; ok {
		return de
	}
	return en
}

// Month translates an English month name. Unknown names are returned
// unchanged.
func Month(en string) string {
	if de, ok := months[en]; ok {
		return de
	}
	return en
}

// WeekdayOf is Weekday(t.Weekday().String()).
func WeekdayOf(t time.Time) string {
	return Weekday(t.Weekday().String())
}

// MonthOf is Month(t.Month().String()).
func MonthOf(t time.Time) string {
	return Month(t.Month().String())
}

// DayLabel is the heading for day offset n starting at t.
func DayLabel(t time.Time, n int) string {
	if n == 0 {
		return Today
	}
	return WeekdayOf(t)
}
