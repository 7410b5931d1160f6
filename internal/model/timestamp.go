package model

import "time"

// TimestampLayout is fixed-width so timestamps stored as text sort by time.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
