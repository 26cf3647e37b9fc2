package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inkdash/internal/locale"
	appLog "inkdash/internal/log"
	"inkdash/internal/model"
)

const (
	documentName   = "dashboard.html"
	cacheImageName = "dashboard.png"

	requiredDaily  = 3
	requiredHourly = 2
)

// Capturer turns a document on disk into a screenshot written to two
// paths. capture.Chromium is the production implementation.
type Capturer interface {
	Capture(ctx context.Context, documentPath string, width, height int, cachePath, destPath string) error
}

// Options configures a Formatter.
type Options struct {
	// TemplatePath is the dashboard template. The filled document is
	// written next to it as dashboard.html.
	TemplatePath string

	// CacheImagePath is the local copy of the screenshot. If empty,
	// dashboard.png next to the template is used.
	CacheImagePath string

	Width  int
	Height int
	// Rotation is accepted but not applied.
	Rotation int
}

// Input is everything one dashboard run needs.
type Input struct {
	Date    model.DateContext
	Current model.CurrentWeather
	Hourly  []model.HourlyForecast
	Daily   []model.DailyForecast

	// Events has one entry per day, starting at Date.
	Events  []model.EventDay
	NumDays int

	// ImagePath is the caller's destination for the screenshot.
	ImagePath string

	// CalendarDetails lists summaries that also show their end time.
	CalendarDetails []string
	MaxLines        int
}

// Formatter fills the dashboard template and hands the document to a
// Capturer.
type Formatter struct {
	opts     Options
	capturer Capturer
}

// NewFormatter constructs a Formatter.
func NewFormatter(opts Options, c Capturer) *Formatter {
	if opts.CacheImagePath == "" {
		opts.CacheImagePath = filepath.Join(filepath.Dir(opts.TemplatePath), cacheImageName)
	}
	return &Formatter{opts: opts, capturer: c}
}

// DocumentPath is where Format writes the filled template.
func (f *Formatter) DocumentPath() string {
	return filepath.Join(filepath.Dir(f.opts.TemplatePath), documentName)
}

// CacheImagePath is the local screenshot copy.
func (f *Formatter) CacheImagePath() string {
	return f.opts.CacheImagePath
}

// Format renders in into the template, writes the document and captures
// it. Input errors abort before the document is written; capture errors
// are returned unchanged.
func (f *Formatter) Format(ctx context.Context, in Input) error {
	started := time.Now()

	tpl, err := os.ReadFile(f.opts.TemplatePath)
	if err != nil {
		return fmt.Errorf("%w: read template %s: %v", ErrConfiguration, f.opts.TemplatePath, err)
	}

	doc, lines, err := f.Document(string(tpl), in)
	if err != nil {
		return err
	}

	docPath := f.DocumentPath()
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("render: write document: %w", err)
	}

	appLog.Info("dashboard document written",
		"path", docPath,
		"lines", lines,
		"max_lines", in.MaxLines,
		"num_days", in.NumDays,
		"rotation", f.opts.Rotation,
	)

	if err := f.capturer.Capture(ctx, docPath, f.opts.Width, f.opts.Height, f.opts.CacheImagePath, in.ImagePath); err != nil {
		return err
	}

	appLog.Info("dashboard rendered",
		"image", in.ImagePath,
		"cache", f.opts.CacheImagePath,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return nil
}

// Document returns the filled template and the number of lines used by
// the event list.
func (f *Formatter) Document(tpl string, in Input) (string, int, error) {
	if in.NumDays > len(in.Events) {
		return "", 0, fmt.Errorf("%w: %d event days requested, %d supplied", ErrDataShape, in.NumDays, len(in.Events))
	}

	fields, err := weatherFields(in)
	if err != nil {
		return "", 0, err
	}

	block := FormatEvents(in.Date, in.Events, in.NumDays, DetailSet(in.CalendarDetails), in.MaxLines)
	fields["events"] = block.HTML

	d := in.Date.Date
	fields["day"] = d.Format("02")
	fields["month"] = locale.MonthOf(d)
	fields["weekday"] = locale.WeekdayOf(d)
	for i := 0; i < 5; i++ {
		fields["day"+strconv.Itoa(i)] = locale.WeekdayOf(in.Date.Day(i))
	}

	doc, err := Substitute(tpl, fields)
	if err != nil {
		return "", 0, err
	}
	return doc, block.Lines, nil
}

var forecastPrefixes = [requiredDaily]string{"today", "tomorrow", "dayafter"}

func weatherFields(in Input) (map[string]string, error) {
	if len(in.Daily) < requiredDaily {
		return nil, fmt.Errorf("%w: need %d daily forecasts, got %d", ErrConfiguration, requiredDaily, len(in.Daily))
	}
	if len(in.Hourly) < requiredHourly {
		return nil, fmt.Errorf("%w: need %d hourly forecasts, got %d", ErrConfiguration, requiredHourly, len(in.Hourly))
	}
	if len(in.Current.Weather) == 0 {
		return nil, fmt.Errorf("%w: current weather has no condition", ErrDataShape)
	}

	cur := in.Current.Weather[0]
	fields := map[string]string{
		"current_weather_text": titleWords(cur.Description),
		"current_weather_id":   strconv.Itoa(cur.ID),
		"current_weather_temp": roundString(in.Current.Temp),
	}

	for i, prefix := range forecastPrefixes {
		day := in.Daily[i]
		if len(day.Weather) == 0 {
			return nil, fmt.Errorf("%w: daily forecast %d has no condition", ErrDataShape, i)
		}
		fields[prefix+"_weather_id"] = strconv.Itoa(day.Weather[0].ID)
		fields[prefix+"_weather_pop"] = roundString(day.Pop * 100)
		fields[prefix+"_weather_min"] = roundString(day.Temp.Min)
		fields[prefix+"_weather_max"] = roundString(day.Temp.Max)
	}
	return fields, nil
}

// titleWords collapses whitespace, lower-cases the text and upper-cases
// the first letter of every whitespace-separated word. Hyphenated parts
// are not words: "light-rain" becomes "Light-rain".
func titleWords(s string) string {
	words := strings.Fields(cases.Lower(language.Und).String(s))
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

func roundString(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}
