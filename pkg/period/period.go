// Package period derives period keys for time bucketing and resolves the named
// relative windows used by dashboards. Every function is pure; callers pass
// the reference time explicitly.
package period

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Granularities understood by Key.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// ErrUnknownGranularity is returned by Key for unsupported granularities.
var ErrUnknownGranularity = errors.New("unknown granularity")

// ErrUnknownWindow is returned by Resolve for unsupported window names.
var ErrUnknownWindow = errors.New("unknown period window")

// DayKey formats t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// WeekKey returns the YYYY-MM-DD key of the Monday starting t's week.
func WeekKey(t time.Time) string {
	return MondayStart(t).Format(dayLayout)
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// Key dispatches to the key function of the granularity.
func Key(granularity string, t time.Time) (string, error) {
	switch granularity {
	case Daily:
		return DayKey(t), nil
	case Weekly:
		return WeekKey(t), nil
	case Monthly:
		return MonthKey(t), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, granularity)
	}
}

// MondayStart truncates t to 00:00 of the Monday of its week, keeping t's location.
func MondayStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	start := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of started 24h days from a to b, never negative.
func DaysBetween(a, b time.Time) int {
	diff := b.Sub(a)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// Named relative windows.
const (
	Week    = "week"
	Month   = "month"
	Quarter = "quarter"
	Year    = "year"
)

var lookbacks = map[string]time.Duration{
	Week:    7 * 24 * time.Hour,
	Month:   30 * 24 * time.Hour,
	Quarter: 90 * 24 * time.Hour,
	Year:    365 * 24 * time.Hour,
}

// Window is a resolved [From, To] range.
type Window struct {
	Name string
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Resolve maps a window name to a fixed lookback ending at now. An empty name
// resolves to Month.
func Resolve(name string, now time.Time) (Window, error) {
	if name == "" {
		name = Month
	}
	lookback, ok := lookbacks[name]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}
	return Window{Name: name, From: now.Add(-lookback), To: now}, nil
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
