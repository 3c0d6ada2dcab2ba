package utils

import (
	"errors"
	"testing"
	"time"
)

func TestFormatReadingTimeHasMicroseconds(t *testing.T) {
	ts := time.Date(2025, 5, 29, 10, 1, 46, 235867000, time.Local)
	if got := FormatReadingTime(ts); got != "2025-05-29T10:01:46.235867" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestParseReadingTimeRoundTrip(t *testing.T) {
	parsed, err := ParseReadingTime("2025-05-29T10:01:46.235867Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Nanosecond() != 235867000 || parsed.Minute() != 1 {
		t.Fatalf("unexpected parse result: %v", parsed)
	}
	if _, err := ParseReadingTime("2025-05-29 10:01:46"); err == nil {
		t.Fatalf("expected error for missing separator")
	}
	if _, err := ParseReadingTime(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

func TestWindowBoundsOrdered(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 30, 0, 0, time.Local)
	from, to := Window(now, 6*time.Hour)
	if from >= to {
		t.Fatalf("expected from < to, got %s >= %s", from, to)
	}
	if from != "2024-12-31T18:30:00.000000" {
		t.Fatalf("unexpected lower bound: %s", from)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError("sensors", "query failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
	if err.Error() != "sensors: query failed: boom" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
