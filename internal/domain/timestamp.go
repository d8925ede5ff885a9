package domain

import (
	"fmt"
	"strings"
	"time"
)

// naiveLayout matches ISO timestamps written without a zone offset. Such
// values are read as local time.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp reads an RFC 3339 timestamp, falling back to a naive ISO
// timestamp in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(naiveLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatTimestamp writes t in RFC 3339 with sub-second precision when present.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
