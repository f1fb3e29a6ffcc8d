package crop

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TimeWindow selects how far back the history view reaches.
type TimeWindow string

const (
	Week  TimeWindow = "week"
	Month TimeWindow = "month"
	Year  TimeWindow = "year"

	// DefaultWindow is selected until the visitor picks another one.
	DefaultWindow = Month
)

// Windows lists the selectable windows in display order.
var Windows = []TimeWindow{Week, Month, Year}

// DisplayDateLayout formats history dates for tables and chart axes.
const DisplayDateLayout = "1/2/2006"

// ParseTimeWindow accepts a window name in any case. An empty string yields
// DefaultWindow.
func ParseTimeWindow(s string) (TimeWindow, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultWindow, nil
	}
	w := TimeWindow(s)
	if w.Days() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
	return w, nil
}

// Days returns the length of the window, or 0 for an unknown window.
func (w TimeWindow) Days() int {
	switch w {
	case Week:
		return 7
	case Month:
		return 30
	case Year:
		return 365
	default:
		return 0
	}
}

// Label is the capitalised window name.
func (w TimeWindow) Label() string {
	if w == "" {
		return ""
	}
	return strings.ToUpper(string(w[:1])) + string(w[1:])
}

// Description explains the window to the visitor.
func (w TimeWindow) Description() string {
	return fmt.Sprintf("Showing data from the last %d days", w.Days())
}

// Cutoff is the oldest instant still inside the window.
func (w TimeWindow) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(w.Days()) * 24 * time.Hour)
}

// FilterByWindow keeps the records dated at or after the window's cutoff.
func FilterByWindow(records []HistoryRecord, w TimeWindow, now time.Time) []HistoryRecord {
	cutoff := w.Cutoff(now)
	out := make([]HistoryRecord, 0, len(records))
	for _, r := range records {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDate returns a copy of records ordered by ascending date. Records with
// equal dates keep their original order.
func SortByDate(records []HistoryRecord) []HistoryRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b HistoryRecord) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// HistoryRow is a record prepared for display.
type HistoryRow struct {
	Date   string  `json:"date"`
	Yield  float64 `json:"yield"`
	Crop   string  `json:"cropType"`
	Region string  `json:"region"`
}

func toRow(r HistoryRecord) HistoryRow {
	return HistoryRow{
		Date:   r.Date.Format(DisplayDateLayout),
		Yield:  r.Yield,
		Crop:   r.Crop,
		Region: r.Region,
	}
}

// DisplayRows formats records, which must already be sorted, for the trend chart.
func DisplayRows(records []HistoryRecord) []HistoryRow {
	rows := make([]HistoryRow, len(records))
	for i, r := range records {
		rows[i] = toRow(r)
	}
	return rows
}

// RecentRows returns the last n records newest first.
func RecentRows(records []HistoryRecord, n int) []HistoryRow {
	start := max(len(records)-n, 0)
	rows := make([]HistoryRow, 0, len(records)-start)
	for i := len(records) - 1; i >= start; i-- {
		rows = append(rows, toRow(records[i]))
	}
	return rows
}
