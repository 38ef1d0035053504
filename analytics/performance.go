// Package analytics buckets completed service requests into the time series
// shown on the admin performance dashboard.
package analytics

import (
	"time"

	"github.com/juju/errors"
)

// TimeRange selects the dashboard window.
type TimeRange string

const (
	Range7Days   TimeRange = "7d"
	Range30Days  TimeRange = "30d"
	Range6Months TimeRange = "6m"
)

// ParseTimeRange accepts the query value; empty means 7d.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return Range7Days, nil
	case Range7Days, Range30Days, Range6Months:
		return TimeRange(s), nil
	}
	return "", errors.NewNotValid(nil, "time_range must be one of 7d, 30d, 6m")
}

// Window is the half-open interval [Start, End) covered by a report, cut
// into Buckets consecutive days or months.
type Window struct {
	Start   time.Time
	End     time.Time
	Monthly bool
	Buckets int
}

// WindowFor computes the window for r ending at now, in loc.
func WindowFor(r TimeRange, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch r {
	case Range6Months:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return Window{
			Start:   firstOfMonth.AddDate(0, -5, 0),
			End:     firstOfMonth.AddDate(0, 1, 0),
			Monthly: true,
			Buckets: 6,
		}
	case Range30Days:
		return Window{Start: today.AddDate(0, 0, -29), End: today.AddDate(0, 0, 1), Buckets: 30}
	default:
		return Window{Start: today.AddDate(0, 0, -6), End: today.AddDate(0, 0, 1), Buckets: 7}
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) bucketStart(i int) time.Time {
	if w.Monthly {
		return w.Start.AddDate(0, i, 0)
	}
	return w.Start.AddDate(0, 0, i)
}

// Point is one bucket of the chart series.
type Point struct {
	Key     string  `json:"key"`
	Date    string  `json:"date"`
	Jobs    int     `json:"jobs"`
	Revenue float64 `json:"revenue"`
}

// Completion is a completed job to be counted.
type Completion struct {
	At     time.Time
	Amount float64
}

// Report is the performance summary for one admin.
type Report struct {
	TotalCompleted int       `json:"total_completed"`
	TotalRevenue   float64   `json:"total_revenue"`
	TimeRange      TimeRange `json:"time_range"`
	ChartData      []Point   `json:"chart_data"`
}

// Series returns a zero-filled series for w with items summed into their
// buckets. Buckets are ordered by start time, never by label.
func Series(w Window, items []Completion) []Point {
	loc := w.Start.Location()
	points := make([]Point, w.Buckets)
	index := make(map[string]int, w.Buckets)
	for i := range points {
		start := w.bucketStart(i)
		key, label := bucketKey(start, w.Monthly)
		points[i] = Point{Key: key, Date: label}
		index[key] = i
	}
	for _, it := range items {
		if !w.Contains(it.At) {
			continue
		}
		key, _ := bucketKey(it.At.In(loc), w.Monthly)
		i, ok := index[key]
		if !ok {
			continue
		}
		points[i].Jobs++
		points[i].Revenue += it.Amount
	}
	return points
}

func bucketKey(t time.Time, monthly bool) (key, label string) {
	if monthly {
		return t.Format("2006-01"), t.Format("Jan 2006")
	}
	return t.Format("2006-01-02"), t.Format("Jan 2")
}

// Summarize builds the report for r at now.
func Summarize(r TimeRange, now time.Time, loc *time.Location, items []Completion) Report {
	w := WindowFor(r, now, loc)
	report := Report{TimeRange: r, ChartData: Series(w, items)}
	for _, p := range report.ChartData {
		report.TotalCompleted += p.Jobs
		report.TotalRevenue += p.Revenue
	}
	return report
}
