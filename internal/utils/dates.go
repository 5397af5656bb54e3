package utils

import "time"

// TimestampLayout formats timestamps in API responses, e.g. "2025-01-31 14:05:00 UTC".
const TimestampLayout = "2006-01-02 15:04:05 UTC"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
