package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkdash/internal/model"
)

type captureCall struct {
	doc           string
	width, height int
	cache, dest   string
}

type fakeCapturer struct {
	calls []captureCall
	err   error
}

func (f *fakeCapturer) Capture(_ context.Context, doc string, w, h int, cache, dest string) error {
	f.calls = append(f.calls, captureCall{doc, w, h, cache, dest})
	return f.err
}

func setupTemplate(t *testing.T) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("testdata", "dashboard_template.html"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "dashboard_template.html")
	require.NoError(t, os.WriteFile(path, src, 0o644))
	return path
}

func cond(id int, desc string) []model.Condition {
	return []model.Condition{{ID: id, Description: desc}}
}

func sampleInput(dest string) Input {
	return Input{
		Date:    monday,
		Current: model.CurrentWeather{Temp: 12.6, Weather: cond(500, "leichter  regen")},
		Hourly: []model.HourlyForecast{
			{Temp: 12, Weather: cond(500, "leichter regen")},
			{Temp: 13, Weather: cond(501, "mäßiger regen")},
		},
		Daily: []model.DailyForecast{
			{Temp: model.DailyTemp{Min: 7.4, Max: 13.5}, Pop: 0.83, Weather: cond(500, "")},
			{Temp: model.DailyTemp{Min: -2.2, Max: 4.1}, Pop: 0.2, Weather: cond(800, "")},
			{Temp: model.DailyTemp{Min: 1, Max: 9.9}, Pop: 0, Weather: cond(803, "")},
		},
		Events: []model.EventDay{
			{timed("Gym", 0, 7, 0, 90), timed("Dentist", 0, 14, 30, 30)},
			{}, {}, {}, {},
		},
		NumDays:         5,
		ImagePath:       dest,
		CalendarDetails: []string{"Gym"},
		MaxLines:        20,
	}
}

func TestFormatWritesDocumentAndCaptures(t *testing.T) {
	tplPath := setupTemplate(t)
	dest := filepath.Join(t.TempDir(), "server.png")
	fc := &fakeCapturer{}
	f := NewFormatter(Options{TemplatePath: tplPath, Width: 800, Height: 480, Rotation: 90}, fc)

	require.NoError(t, f.Format(context.Background(), sampleInput(dest)))

	docPath := filepath.Join(filepath.Dir(tplPath), "dashboard.html")
	assert.Equal(t, docPath, f.DocumentPath())
	raw, err := os.ReadFile(docPath)
	require.NoError(t, err)
	doc := string(raw)

	assert.Contains(t, doc, "html, body { margin: 0; width: 800px; height: 480px; }")
	assert.Contains(t, doc, `<div id="date">Montag, 19. Oktober</div>`)
	assert.Contains(t, doc, `<div id="week">Montag Dienstag Mittwoch Donnerstag Freitag</div>`)
	assert.Contains(t, doc, `<div id="now" data-id="500">13° Leichter Regen</div>`)
	assert.Contains(t, doc, `<div id="today" data-id="500">7/14 83%</div>`)
	assert.Contains(t, doc, `<div id="tomorrow" data-id="800">-2/4 20%</div>`)
	assert.Contains(t, doc, `<div id="dayafter" data-id="803">1/10 0%</div>`)
	assert.Contains(t, doc, "7:00 - 8:30</span> Gym")

	require.Len(t, fc.calls, 1)
	assert.Equal(t, captureCall{
		doc:    docPath,
		width:  800,
		height: 480,
		cache:  filepath.Join(filepath.Dir(tplPath), "dashboard.png"),
		dest:   dest,
	}, fc.calls[0])
}

func TestFormatMissingDayAfterForecast(t *testing.T) {
	tplPath := setupTemplate(t)
	fc := &fakeCapturer{}
	f := NewFormatter(Options{TemplatePath: tplPath, Width: 800, Height: 480}, fc)

	in := sampleInput(filepath.Join(t.TempDir(), "server.png"))
	in.Daily = in.Daily[:2]

	err := f.Format(context.Background(), in)

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, fc.calls)
	assert.NoFileExists(t, in.ImagePath)
	assert.NoFileExists(t, f.DocumentPath())
}

func TestFormatMissingHourlyForecast(t *testing.T) {
	f := NewFormatter(Options{TemplatePath: setupTemplate(t)}, &fakeCapturer{})
	in := sampleInput("")
	in.Hourly = in.Hourly[:1]

	assert.ErrorIs(t, f.Format(context.Background(), in), ErrConfiguration)
}

func TestFormatDataShapeErrors(t *testing.T) {
	f := NewFormatter(Options{TemplatePath: setupTemplate(t)}, &fakeCapturer{})

	in := sampleInput("")
	in.Current.Weather = nil
	assert.ErrorIs(t, f.Format(context.Background(), in), ErrDataShape)

	in = sampleInput("")
	in.Daily[1].Weather = nil
	assert.ErrorIs(t, f.Format(context.Background(), in), ErrDataShape)

	in = sampleInput("")
	in.Events = in.Events[:3]
	assert.ErrorIs(t, f.Format(context.Background(), in), ErrDataShape)
}

func TestFormatUnreadableTemplate(t *testing.T) {
	fc := &fakeCapturer{}
	f := NewFormatter(Options{TemplatePath: filepath.Join(t.TempDir(), "nope.html")}, fc)

	assert.ErrorIs(t, f.Format(context.Background(), sampleInput("")), ErrConfiguration)
	assert.Empty(t, fc.calls)
}

func TestFormatPropagatesCaptureError(t *testing.T) {
	boom := errors.New("chrome exploded")
	f := NewFormatter(Options{TemplatePath: setupTemplate(t), CacheImagePath: "/tmp/x.png"}, &fakeCapturer{err: boom})

	assert.ErrorIs(t, f.Format(context.Background(), sampleInput("")), boom)
	assert.Equal(t, "/tmp/x.png", f.CacheImagePath())
}

func TestShippedTemplateFills(t *testing.T) {
	tpl, err := os.ReadFile(filepath.Join("..", "..", "templates", "dashboard_template.html"))
	require.NoError(t, err)

	f := NewFormatter(Options{TemplatePath: "unused.html"}, &fakeCapturer{})
	doc, lines, err := f.Document(string(tpl), sampleInput(""))
	require.NoError(t, err)

	assert.Equal(t, 7, lines)
	assert.NotContains(t, doc, "{day}")
	assert.Contains(t, doc, "wi-owm-500")
	assert.Contains(t, doc, "html, body { margin: 0;")
}

func TestTitleWords(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leichter  regen", "Leichter Regen"},
		{"light-rain", "Light-rain"},
		{"MÄSSIGER regen", "Mässiger Regen"},
		{"  überwiegend\tbewölkt ", "Überwiegend Bewölkt"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, titleWords(tt.in))
		})
	}
}
