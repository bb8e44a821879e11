// Package timewindow resolves partial, possibly-redundant time specifications
// into a validated UTC window and splits long windows into bounded chunks for
// upstream APIs with a maximum request span.
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

// Spec carries the raw time inputs, normally straight from CLI flags.
// At least one of Start, Duration or Period must be set.
type Spec struct {
	// Start and End are timestamps with a mandatory UTC offset
	// (RFC 3339 or ISO 8601). End defaults to "now" when empty.
	Start string
	End   string

	// Duration is an ISO 8601 duration such as P1D or PT12H, used to derive
	// Start from End when Start is not given.
	Duration string

	// Period is a fixed calendar period: YYYY, YYYY-MM, YYYY-MM-DD, or the
	// keywords "today" / "yesterday". Period takes precedence over the
	// explicit/duration path.
	Period string

	// SubtractEnd is subtracted from the resolved end time. Some upstreams
	// treat the end boundary as inclusive; shaving a fraction of a second off
	// avoids double counting. Not applied when Period is used.
	SubtractEnd time.Duration

	// RoundTimes truncates the end time down to the start of its hour before
	// deriving the start from it. Not applied when Period is used.
	RoundTimes bool
}

// Window is a resolved half-open interval [Start, End) in UTC.
type Window struct {
	Start   time.Time
	End     time.Time
	Seconds int64
}

// ErrNoTimeSpec is returned when none of start, duration or period is given.
var ErrNoTimeSpec = errors.New("either start time, duration or period must be given")

// Resolve turns spec into a validated window. The current time is injected so
// resolution stays a pure function; callers pass time.Now().UTC().
func Resolve(spec Spec, now time.Time) (Window, error) {
	if spec.Start == "" && spec.Duration == "" && spec.Period == "" {
		return Window{}, ErrNoTimeSpec
	}

	var start, end time.Time
	if spec.Period != "" {
		period, err := ParsePeriod(spec.Period, now)
		if err != nil {
			return Window{}, err
		}
		start, end = period.Start(), period.End()
	} else {
		end = now.UTC()
		if spec.End != "" {
			parsed, err := ParseTime(spec.End)
			if err != nil {
				return Window{}, fmt.Errorf("invalid end time: %w", err)
			}
			end = parsed
		}
		if spec.RoundTimes {
			end = end.Truncate(time.Hour)
		}
		if spec.Start != "" {
			parsed, err := ParseTime(spec.Start)
			if err != nil {
				return Window{}, fmt.Errorf("invalid start time: %w", err)
			}
			start = parsed
		} else {
			duration, err := ParseDuration(spec.Duration)
			if err != nil {
				return Window{}, err
			}
			start = end.Add(-duration)
		}
		end = end.Add(-spec.SubtractEnd)
	}

	if !start.Before(end) {
		return Window{}, fmt.Errorf("start time %s must be before end time %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Window{
		Start:   start,
		End:     end,
		Seconds: int64(end.Sub(start) / time.Second),
	}, nil
}
