package classify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DueSoonWindow is the inclusive number of days ahead that counts as due soon.
const DueSoonWindow = 3

// monthNames is the fixed abbreviation table; September is "Sept".
var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sept", "Oct", "Nov", "Dec",
}

// ErrMalformedDate is returned for strings that are not in "Mon. Day" form.
var ErrMalformedDate = errors.New("malformed due date")

// FormatDate renders t as "Mon. Day", e.g. "Jun. 12" or "Sept. 3".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s. %d", monthNames[t.Month()-1], t.Day())
}

// ParseDueDate reconstructs the calendar date behind a "Mon. Day" string
// relative to ref. The date is placed in ref's year; if that is before
// ref's calendar day it is assumed to mean next year (one year forward,
// never more). This is a display heuristic, not calendar-exact logic.
// The result is midnight in ref's location.
func ParseDueDate(display string, ref time.Time) (time.Time, error) {
	month, day, err := splitDisplay(display)
	if err != nil {
		return time.Time{}, err
	}

	today := midnight(ref)
	due := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if due.Before(today) {
		due = due.AddDate(1, 0, 0)
	}
	return due, nil
}

// DaysUntil returns the whole number of calendar days from ref's day to
// the due date. ok is false for malformed input.
func DaysUntil(display string, ref time.Time) (days int, ok bool) {
	due, err := ParseDueDate(display, ref)
	if err != nil {
		return 0, false
	}
	return calendarDays(midnight(ref), due), true
}

// IsDueSoon reports whether the due date lies within
// [ref, ref+DueSoonWindow days]. Malformed strings are never due soon.
func IsDueSoon(display string, ref time.Time) bool {
	days, ok := DaysUntil(display, ref)
	if !ok {
		return false
	}
	return days >= 0 && days <= DueSoonWindow
}

// Canonical re-formats a display string through the parser so that
// equivalent spellings ("Jun.  7", "Feb. 30") converge. Malformed input
// is returned unchanged with ok=false.
func Canonical(display string, ref time.Time) (string, bool) {
	due, err := ParseDueDate(display, ref)
	if err != nil {
		return display, false
	}
	return FormatDate(due), true
}

func splitDisplay(display string) (time.Month, int, error) {
	name, dayText, found := strings.Cut(strings.TrimSpace(display), ". ")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedDate, display)
	}

	month := time.Month(0)
	for i, m := range monthNames {
		if m == name {
			month = time.Month(i + 1)
			break
		}
	}
	if month == 0 {
		return 0, 0, fmt.Errorf("%w: unknown month %q", ErrMalformedDate, name)
	}

	day, err := strconv.Atoi(strings.TrimSpace(dayText))
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("%w: bad day %q", ErrMalformedDate, dayText)
	}
	return month, day, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// calendarDays counts days between two midnights without DST skew.
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
