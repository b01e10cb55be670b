// Package cli holds small parsing helpers shared by command flags.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFilterLayout is the ISO 8601 form the media listing expects for
// dateCreated and dateModified.
const DateFilterLayout = "2006-01-02T15:04:05Z"

// "2h", "3d ago", "1w", "6mo ago"
var relativeRegex = regexp.MustCompile(`^(\d+)\s*(mo|w|d|h|m)(\s+ago)?$`)

// ParseDateFilter turns a human date expression into the ISO 8601 UTC
// timestamp used by media filters.
//
// Accepted: "today", "yesterday", a weekday ("monday", "last fri") meaning
// its most recent past occurrence, a duration back from now ("3d",
// "2w ago", "6mo"), a calendar date (2006-01-02) and RFC 3339.
func ParseDateFilter(s string, now time.Time) (string, error) {
	t, err := ParseSince(s, now)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(DateFilterLayout), nil
}

// ParseSince resolves s to a point in time at or before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}
	input := strings.ToLower(raw)

	switch input {
	case "now":
		return now, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if t, ok := lastWeekday(input, now); ok {
		return t, nil
	}

	if m := relativeRegex.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid relative date %q", raw)
		}
		return back(now, n, m[2]), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, RFC 3339, or forms like 3d, yesterday, monday", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// lastWeekday returns the start of the latest day named expr strictly
// before today, so "monday" on a Monday is a week ago.
func lastWeekday(expr string, now time.Time) (time.Time, bool) {
	name := strings.TrimSpace(strings.TrimPrefix(expr, "last "))
	weekday, ok := weekdays[name]
	if !ok {
		return time.Time{}, false
	}

	today := startOfDay(now)
	delta := (int(today.Weekday()) - int(weekday) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, -delta), true
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func back(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "mo":
		return now.AddDate(0, -n, 0)
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "d":
		return now.AddDate(0, 0, -n)
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	default:
		return now.Add(-time.Duration(n) * time.Minute)
	}
}
