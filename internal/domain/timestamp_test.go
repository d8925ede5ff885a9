package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 utc", "2024-05-01T12:00:00Z", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-05-01T14:00:00+02:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"naive", "2024-05-01T12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)},
		{"naive micros", "2024-05-01T12:00:00.654321", time.Date(2024, 5, 1, 12, 0, 0, 654321000, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024-13-01T00:00:00"} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFormatTimestamp_RoundTrips(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)
	got, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}
