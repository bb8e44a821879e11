package timewindow

import (
	"testing"
	"time"
)

func TestParseTimeFormats(t *testing.T) {
	cases := map[string]time.Time{
		"2024-06-30T00:00:00Z":      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		"2024-06-30T03:00:00+03:00": time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		"2024-06-30T12:00:00.500Z":  time.Date(2024, 6, 30, 12, 0, 0, 500000000, time.UTC),
	}
	for input, expected := range cases {
		parsed, err := ParseTime(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if !parsed.Equal(expected) {
			t.Fatalf("parsed %q to %v, expected %v", input, parsed, expected)
		}
		if parsed.Location() != time.UTC {
			t.Fatalf("parsed %q not normalized to UTC", input)
		}
	}
}

func TestParseTimeRejectsNaive(t *testing.T) {
	for _, input := range []string{"2024-06-30T00:00:00", "2024-06-30", "2024-06-30 12:00:00"} {
		if _, err := ParseTime(input); err == nil {
			t.Fatalf("expected error for naive timestamp %q", input)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"P1D":    24 * time.Hour,
		"PT12H":  12 * time.Hour,
		"PT30M":  30 * time.Minute,
		"P1W":    7 * 24 * time.Hour,
		"P1DT6H": 30 * time.Hour,
	}
	for input, expected := range cases {
		parsed, err := ParseDuration(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if parsed != expected {
			t.Fatalf("parsed %q to %v, expected %v", input, parsed, expected)
		}
	}
}

func TestParseDurationErrors(t *testing.T) {
	if _, err := ParseDuration("PT0S"); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if _, err := ParseDuration("one day"); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestConvertToSeconds(t *testing.T) {
	cases := map[string]int64{
		"500s": 500,
		"120m": 7200,
		"24h":  86400,
		"5d":   432000,
		"16w":  9676800,
	}
	for input, expected := range cases {
		seconds, err := ConvertToSeconds(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if seconds != expected {
			t.Fatalf("converted %q to %d, expected %d", input, seconds, expected)
		}
	}
	for _, input := range []string{"", "5", "5x", "x5d"} {
		if _, err := ConvertToSeconds(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
