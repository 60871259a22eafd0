package aggregator

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Period selects how the activity series is bucketed.
type Period string

const (
	PeriodHour Period = "hour"
	PeriodDay  Period = "day"
)

var (
	timeToken = regexp.MustCompile(`\d{2}:\d{2}`)
	dateToken = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Stats holds a point-in-time snapshot of the activity counters.
type Stats struct {
	TotalChanges int            `json:"total_changes"`
	PeakActivity string         `json:"peak_activity"` // "HH:00" or "-"
	Hours        [24]int        `json:"hours"`
	Days         map[string]int `json:"days"`
}

// Series is the labelled data for the currently selected period.
type Series struct {
	Period Period   `json:"period"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Activity buckets formatted records by hour of day and by date.
type Activity struct {
	mu     sync.RWMutex
	hours  [24]int
	days   map[string]int
	period Period
}

// New creates an empty Activity showing the hourly view.
func New() *Activity {
	return &Activity{
		days:   make(map[string]int),
		period: PeriodHour,
	}
}

// Parse replaces the counters with buckets computed from records. Each
// record contributes its first HH:MM token to the hour view and its first
// YYYY-MM-DD token to the day view; either may be missing.
func (a *Activity) Parse(records []string) {
	var hours [24]int
	days := make(map[string]int)

	for _, rec := range records {
		if tm := timeToken.FindString(rec); tm != "" {
			if hour, err := strconv.Atoi(tm[:2]); err == nil && hour >= 0 && hour < 24 {
				hours[hour]++
			}
		}
		if d := dateToken.FindString(rec); d != "" {
			days[d]++
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.hours = hours
	a.days = days
}

// Clear resets all counters.
func (a *Activity) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hours = [24]int{}
	a.days = make(map[string]int)
}

// SetPeriod switches the series view. It returns false if p is already
// selected or unknown.
func (a *Activity) SetPeriod(p Period) bool {
	if p != PeriodHour && p != PeriodDay {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.period == p {
		return false
	}
	a.period = p
	return true
}

// Period returns the selected view.
func (a *Activity) Period() Period {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.period
}

// Snapshot returns the current counters.
func (a *Activity) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	days := make(map[string]int, len(a.days))
	for k, v := range a.days {
		days[k] = v
	}

	total, peak := 0, 0
	for h, n := range a.hours {
		total += n
		if n > a.hours[peak] {
			peak = h
		}
	}

	peakLabel := "-"
	if total > 0 {
		peakLabel = hourLabel(peak)
	}

	return Stats{
		TotalChanges: total,
		PeakActivity: peakLabel,
		Hours:        a.hours,
		Days:         days,
	}
}

// Series returns labels and values for the selected period. Days are
// sorted ascending and labelled DD.MM.YY.
func (a *Activity) Series() Series {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.period == PeriodHour {
		s := Series{Period: PeriodHour, Labels: make([]string, 24), Values: make([]int, 24)}
		for h := range a.hours {
			s.Labels[h] = hourLabel(h)
			s.Values[h] = a.hours[h]
		}
		return s
	}

	sorted := a.sortedDays()
	s := Series{Period: PeriodDay, Labels: make([]string, len(sorted)), Values: make([]int, len(sorted))}
	for i, d := range sorted {
		s.Labels[i] = shortDateLabel(d)
		s.Values[i] = a.days[d]
	}
	return s
}

// FullDate returns the DD.MM.YYYY date of the index-th day bar, or "" when
// the hourly view is selected or the index is out of range.
func (a *Activity) FullDate(index int) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.period != PeriodDay {
		return ""
	}
	sorted := a.sortedDays()
	if index < 0 || index >= len(sorted) {
		return ""
	}
	y, m, d := splitDate(sorted[index])
	return fmt.Sprintf("%s.%s.%s", d, m, y)
}

// sortedDays must be called with a.mu held.
func (a *Activity) sortedDays() []string {
	keys := make([]string, 0, len(a.days))
	for k := range a.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func shortDateLabel(date string) string {
	y, m, d := splitDate(date)
	if len(y) > 2 {
		y = y[len(y)-2:]
	}
	return fmt.Sprintf("%s.%s.%s", d, m, y)
}

func splitDate(date string) (year, month, day string) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date, "", ""
	}
	return parts[0], parts[1], parts[2]
}
