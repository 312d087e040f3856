// Package render emits one printable HTML page per day schedule: the
// all-day band in presentation order and the hour grid with layered,
// width-fractioned event boxes. The page marks itself with
// data-ready="true" so the capture step knows rendering is complete.
package render

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"papercal/internal/model"
	"papercal/internal/sched"
)

// allDayBox is one entry of the all-day band.
type allDayBox struct {
	Title     string
	Color     string
	TimeLabel string
}

// eventBox is one timed event positioned on the grid. Percentages are
// relative to the grid container; boxes are right-aligned and narrower
// layers draw on top of wider ones.
type eventBox struct {
	Title     string
	Color     string
	TimeLabel string
	TopPct    float64
	HeightPct float64
	WidthPct  float64
	Layer     int
}

type hourRow struct {
	Label  string
	TopPct float64
}

type pageData struct {
	DateLabel string
	AllDay    []allDayBox
	Hours     []hourRow
	Events    []eventBox
}

// DayHTML renders one day schedule to a standalone HTML document.
func DayHTML(day model.DaySchedule, opts sched.Options) (string, error) {
	gridStart := day.Date.Add(time.Duration(opts.StartHour) * time.Hour)
	gridEnd := day.Date.Add(time.Duration(opts.EndHour) * time.Hour)
	span := gridEnd.Sub(gridStart)

	data := pageData{
		DateLabel: day.Date.Format("Monday, January 2 2006"),
	}

	for _, in := range day.AllDay {
		data.AllDay = append(data.AllDay, allDayBox{
			Title:     in.Title,
			Color:     colorOrDefault(in.CalendarColor),
			TimeLabel: in.TimeLabel,
		})
	}

	for h := opts.StartHour; h <= opts.EndHour; h++ {
		at := day.Date.Add(time.Duration(h) * time.Hour)
		data.Hours = append(data.Hours, hourRow{
			Label:  opts.FormatClock(at),
			TopPct: pct(at.Sub(gridStart), span),
		})
	}

	for _, ev := range day.Timed {
		// Clamp the drawn box to the grid; skip anything fully outside.
		drawStart := maxTime(ev.Start, gridStart)
		drawEnd := minTime(ev.End, gridEnd)
		if !drawStart.Before(drawEnd) {
			continue
		}
		data.Events = append(data.Events, eventBox{
			Title:     ev.Title,
			Color:     colorOrDefault(ev.CalendarColor),
			TimeLabel: opts.FormatClock(ev.Start) + "–" + opts.FormatClock(ev.End),
			TopPct:    pct(drawStart.Sub(gridStart), span),
			HeightPct: pct(drawEnd.Sub(drawStart), span),
			WidthPct:  ev.WidthFrac * 100,
			Layer:     ev.Layer,
		})
	}

	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return sb.String(), nil
}

// WriteDay renders a day and writes it to dir as schedule_<date>.html,
// returning the written path.
func WriteDay(fs afero.Fs, dir string, day model.DaySchedule, opts sched.Options) (string, error) {
	html, err := DayHTML(day, opts)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "schedule_"+day.Date.Format("2006-01-02")+".html")
	if err := afero.WriteFile(fs, path, []byte(html), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func colorOrDefault(c string) string {
	if c == "" {
		return "#DDDDDD"
	}
	return c
}

func pct(d, span time.Duration) float64 {
	if span <= 0 {
		return 0
	}
	return float64(d) / float64(span) * 100
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

var pageTmpl = template.Must(template.New("day").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.DateLabel}}</title>
<style>
  body { font-family: -apple-system, "Helvetica Neue", sans-serif; margin: 24px; color: #111; }
  h1 { font-size: 20px; font-weight: 600; margin: 0 0 12px; }
  .allday { border: 1px solid #999; border-radius: 4px; padding: 6px; margin-bottom: 12px; }
  .allday .item { display: flex; align-items: center; gap: 6px; padding: 2px 0; font-size: 12px; }
  .allday .bar { width: 4px; height: 14px; border-radius: 2px; }
  .allday .orig { color: #666; margin-left: auto; }
  .grid { position: relative; height: 1100px; border-top: 1px solid #ccc; }
  .hour { position: absolute; left: 0; right: 0; border-bottom: 1px solid #ddd; font-size: 10px; color: #888; }
  .hour span { position: absolute; left: 0; top: -6px; background: #fff; padding-right: 4px; }
  .event { position: absolute; right: 0; border: 1px solid #444; border-radius: 4px;
           box-sizing: border-box; overflow: hidden; background: #fff; padding: 2px 4px 2px 8px; }
  .event .bar { position: absolute; left: 0; top: 0; bottom: 0; width: 4px; }
  .event .title { font-size: 11px; font-weight: 600; }
  .event .time { font-size: 10px; color: #555; }
</style>
</head>
<body>
<div data-ready="true">
  <h1>{{.DateLabel}}</h1>
{{- if .AllDay}}
  <div class="allday">
{{- range .AllDay}}
    <div class="item"><div class="bar" style="background:{{.Color}}"></div>{{.Title}}{{if .TimeLabel}}<span class="orig">{{.TimeLabel}}</span>{{end}}</div>
{{- end}}
  </div>
{{- end}}
  <div class="grid">
{{- range .Hours}}
    <div class="hour" style="top:{{printf "%.3f" .TopPct}}%"><span>{{.Label}}</span></div>
{{- end}}
{{- range .Events}}
    <div class="event" style="top:{{printf "%.3f" .TopPct}}%;height:{{printf "%.3f" .HeightPct}}%;width:{{printf "%.3f" .WidthPct}}%;z-index:{{.Layer}}">
      <div class="bar" style="background:{{.Color}}"></div>
      <div class="title">{{.Title}}</div>
      <div class="time">{{.TimeLabel}}</div>
    </div>
{{- end}}
  </div>
</div>
</body>
</html>
`))
