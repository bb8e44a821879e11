package timewindow

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadPeriod marks a period string that is neither a keyword nor a valid
// YYYY, YYYY-MM or YYYY-MM-DD date.
var ErrBadPeriod = errors.New("invalid period")

// Granularity tells which calendar unit a period covers.
type Granularity int

const (
	Year Granularity = iota
	Month
	Day
)

func (g Granularity) String() string {
	switch g {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// Period is a calendar-aligned fixed time range at year, month or day
// granularity. Each granularity carries its own end computation, so the
// month wrap from December to January happens in exactly one place.
type Period struct {
	Granularity Granularity
	year        int
	month       time.Month
	day         int
}

var periodPattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// ParsePeriod parses YYYY, YYYY-MM or YYYY-MM-DD, or the keywords "today"
// and "yesterday" which resolve against now on the UTC calendar.
func ParsePeriod(s string, now time.Time) (Period, error) {
	switch s {
	case "today":
		s = now.UTC().Format("2006-01-02")
	case "yesterday":
		s = now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}

	match := periodPattern.FindStringSubmatch(s)
	if match == nil {
		return Period{}, fmt.Errorf("%w: %q is not in YYYY, YYYY-MM or YYYY-MM-DD format", ErrBadPeriod, s)
	}

	period := Period{Granularity: Year, month: time.January, day: 1}
	period.year, _ = strconv.Atoi(match[1])
	if match[2] != "" {
		month, _ := strconv.Atoi(match[2])
		period.Granularity = Month
		period.month = time.Month(month)
	}
	if match[3] != "" {
		period.Granularity = Day
		period.day, _ = strconv.Atoi(match[3])
	}

	// time.Date normalizes out-of-range values, so 2024-02-30 would silently
	// become March. Reject anything that does not round-trip.
	start := period.Start()
	if start.Year() != period.year || start.Month() != period.month || start.Day() != period.day {
		return Period{}, fmt.Errorf("%w: %q is not a valid calendar date", ErrBadPeriod, s)
	}
	return period, nil
}

// Start is the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.year, p.month, p.day, 0, 0, 0, 0, time.UTC)
}

// End is the first instant after the period in UTC: the next day, the first
// of the next month (rolling December into January of the following year),
// or January 1st of the following year.
func (p Period) End() time.Time {
	switch p.Granularity {
	case Day:
		return p.Start().AddDate(0, 0, 1)
	case Month:
		year, month := p.year, p.month+1
		if month > time.December {
			year, month = year+1, time.January
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(p.year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}
