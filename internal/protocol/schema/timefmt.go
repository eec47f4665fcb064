package schema

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire form of datetime fields. UTC renders as +00:00.
const DateTimeLayout = "2006-01-02T15:04:05.999999999-07:00"

var dateTimeInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	// no offset: read as UTC
	"2006-01-02T15:04:05.999999999",
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseDateTime accepts RFC 3339 text with Z or a numeric offset. A trailing
// zone name in brackets, e.g. "[UTC]", is dropped.
func ParseDateTime(s string) (time.Time, error) {
	raw := s
	if i := strings.IndexByte(s, '['); i > 0 && strings.HasSuffix(s, "]") {
		s = s[:i]
	}
	for _, layout := range dateTimeInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", raw)
}

// TimeOfDay is a wall clock time with no date or offset.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOfDayOf takes the clock part of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// String renders HH:MM:SS with a fraction only when non-zero.
func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond == 0 {
		return s
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
	return s + "." + frac
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		// time.Parse accepts a fractional second after the seconds field.
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}
