// Package schedule computes wheel rotation due dates.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the configured rotation cadence of a wheel.
type Frequency string

const (
	Weekly     Frequency = "weekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	Biannually Frequency = "biannually"
	Annually   Frequency = "annually"
)

// Frequencies lists every valid cadence, shortest first.
var Frequencies = []Frequency{Weekly, Monthly, Quarterly, Biannually, Annually}

var (
	// ErrUnknownFrequency is returned for a cadence outside Frequencies.
	ErrUnknownFrequency = errors.New("unknown rotation frequency")
	// ErrInvalidState is returned when there is no base date to schedule from.
	ErrInvalidState = errors.New("no base date for due date computation")
)

// ParseFrequency normalizes s and checks it against the known cadences.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

// Valid reports whether f is one of the known cadences.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Quarterly, Biannually, Annually:
		return true
	}
	return false
}

// months returns the calendar-month step of f; weekly has none.
func (f Frequency) months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Biannually:
		return 6
	case Annually:
		return 12
	}
	return 0
}

// NextDue adds one cadence interval to base.
//
// Month based cadences keep the day of month when the target month has it and
// clamp to that month's last day otherwise, so Jan 31 + 1 month is Feb 28 (or 29).
func NextDue(base time.Time, f Frequency) (time.Time, error) {
	if base.IsZero() {
		return time.Time{}, ErrInvalidState
	}
	if !f.Valid() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
	}
	if f == Weekly {
		return base.AddDate(0, 0, 7), nil
	}
	return addMonthsClamped(base, f.months()), nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	// Day 1 never overflows, so this normalizes the year/month only.
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
