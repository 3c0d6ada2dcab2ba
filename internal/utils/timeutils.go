package utils

import (
	"fmt"
	"strings"
	"time"
)

// ReadingLayout is the timestamp format used by the sensor table: local time,
// microsecond precision, no zone suffix. Every field has a fixed width, so two
// formatted values compare lexically in chronological order.
const ReadingLayout = "2006-01-02T15:04:05.000000"

// FormatReadingTime renders t in the sensor table timestamp format.
func FormatReadingTime(t time.Time) string {
	return t.Local().Format(ReadingLayout)
}

// ParseReadingTime parses a sensor table timestamp. A trailing "Z" is ignored
// and fractional seconds of any width are accepted.
func ParseReadingTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if !strings.Contains(value, "T") {
		return time.Time{}, fmt.Errorf("parse time %q: missing date/time separator", value)
	}
	trimmed := strings.TrimSuffix(value, "Z")
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", trimmed, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// Window returns the [now-d, now] bounds formatted for a key-range query.
func Window(now time.Time, d time.Duration) (from, to string) {
	return FormatReadingTime(now.Add(-d)), FormatReadingTime(now)
}
