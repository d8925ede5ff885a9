package xapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// resetBuffer is added to the x-rate-limit-reset instant so the retry lands
	// after the window has rolled over.
	resetBuffer = 5 * time.Second

	defaultRateLimitWait = 60 * time.Second
	maxRateLimitWait     = 15 * time.Minute
	defaultMaxAttempts   = 5
)

// rateLimitWait computes how long to wait after a 429. The reset timestamp
// header wins over Retry-After, which wins over the fixed default. The result
// never exceeds maxRateLimitWait.
func rateLimitWait(h http.Header, now time.Time) time.Duration {
	wait, ok := waitFromReset(h.Get("x-rate-limit-reset"), now)
	if !ok {
		wait, ok = parseRetryAfter(h.Get("Retry-After"), now)
	}
	if !ok {
		wait = defaultRateLimitWait
	}
	if wait > maxRateLimitWait {
		return maxRateLimitWait
	}
	return wait
}

func waitFromReset(header string, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	epoch, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0, false
	}
	until := time.Unix(epoch, 0).Sub(now)
	if until < 0 {
		until = 0
	}
	return until + resetBuffer, true
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(header string, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(header); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
