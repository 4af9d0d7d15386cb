package feed

import (
	"fmt"
	"time"
)

// FormatRecency renders the time elapsed between instant and now as a coarse
// label such as "3 days ago". Elapsed time is floored to the largest unit;
// instants in the future read as "just now".
func FormatRecency(instant, now time.Time) string {
	elapsed := now.Sub(instant)
	if elapsed < time.Minute {
		return "just now"
	}

	minutes := int64(elapsed / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days >= 365:
		return ago(days/365, "year")
	case days >= 30:
		return ago(days/30, "month")
	case days >= 1:
		return ago(days, "day")
	case hours >= 1:
		return ago(hours, "hour")
	default:
		return ago(minutes, "minute")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
