package db

import "time"

// TimeFormat is the storage format for timestamps: RFC3339 in UTC.
const TimeFormat = "2006-01-02T15:04:05Z"

// TimeParse parses a stored timestamp. An empty string parses to the zero
// time, which is how nullable timestamps (funded_at) round-trip.
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

// TimeStamp formats a time for storage. The zero time formats to "".
func TimeStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}
