package timewindow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/sosodev/duration"
)

// Timestamps without an explicit zone designator are rejected rather than
// silently assumed UTC, so a local-time typo cannot shift a whole export.
var zoneSuffix = regexp.MustCompile(`(?i)(z|[+-]\d{2}(:?\d{2})?)$`)

// hasZone reports whether s ends in a zone designator after its time part.
// The zone is only looked for after the date/time separator so that the day
// in a date-only string like 2024-06-30 is not mistaken for an offset.
func hasZone(s string) bool {
	sep := strings.IndexAny(s, "Tt ")
	if sep < 0 {
		return false
	}
	return zoneSuffix.MatchString(s[sep+1:])
}

// ParseTime parses an ISO 8601 timestamp with a mandatory UTC offset and
// returns it normalized to UTC.
func ParseTime(s string) (time.Time, error) {
	if !hasZone(s) {
		return time.Time{}, fmt.Errorf("timestamp %q must include a UTC offset", s)
	}
	parsed, err := iso8601.ParseString(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return parsed.UTC(), nil
}

// ParseDuration parses an ISO 8601 duration such as P1D or PT12H. A duration
// that parses to exactly zero is an error, distinct from not given at all.
func ParseDuration(s string) (time.Duration, error) {
	parsed, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	d := parsed.ToTimeDuration()
	if d == 0 {
		return 0, fmt.Errorf("duration %q resolves to zero seconds", s)
	}
	return d, nil
}

var secondUnits = map[byte]int64{'s': 1, 'm': 60, 'h': 3600, 'd': 86400, 'w': 604800}

// ConvertToSeconds converts strings like 500s, 120m, 24h, 5d or 16w to the
// equivalent number of seconds. Used by chunk-size flags.
func ConvertToSeconds(s string) (int64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid time period %q, use postfixes s, m, h, d, w", s)
	}
	unit, ok := secondUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid time period %q, use postfixes s, m, h, d, w", s)
	}
	count, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time period %q: %w", s, err)
	}
	return count * unit, nil
}
