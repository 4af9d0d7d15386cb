package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Upload times are stored as "HH:MM DD/MM/YYYY" and are always read as UTC.
const timeLayout = "15:04 02/01/2006"

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ParseTime parses an upload timestamp. Zero padding is optional.
func ParseTime(raw string) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q: expected \"HH:MM DD/MM/YYYY\"", ErrMalformedTimestamp, raw)
	}

	clock := strings.Split(fields[0], ":")
	date := strings.Split(fields[1], "/")
	if len(clock) != 2 || len(date) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q: expected \"HH:MM DD/MM/YYYY\"", ErrMalformedTimestamp, raw)
	}

	hour, err := parsePart(clock[0], "hour", 0, 23)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}
	minute, err := parsePart(clock[1], "minute", 0, 59)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}
	year, err := parsePart(date[2], "year", 1, 9999)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}
	month, err := parsePart(date[1], "month", 1, 12)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}
	day, err := parsePart(date[0], "day", 1, daysIn(time.Month(month), year))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

// FormatTime renders t in the descriptor format, zero-padded, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parsePart(s, name string, low, high int) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is empty", name)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%s %q is not numeric", name, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, s, err)
	}
	if n < low || n > high {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", name, n, low, high)
	}
	return n, nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
