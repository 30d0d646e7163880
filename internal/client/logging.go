package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// maxQueryLogLen is the maximum length for logged query strings before truncation.
const maxQueryLogLen = 200

// slowRequestThreshold is the time to response headers above which requests
// are logged at WARN level.
const slowRequestThreshold = 2 * time.Second

// loggingTransport logs every request with its timing.
// Failed and slow requests are logged at WARN, rejected ones (4xx/5xx) too;
// everything else at DEBUG.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", duration.Milliseconds(),
	}
	if q := req.URL.RawQuery; q != "" {
		attrs = append(attrs, "query", truncate(q, maxQueryLogLen))
	}

	switch {
	case errors.Is(err, context.Canceled):
		t.logger.Debug("request cancelled", attrs...)
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Warn("request failed", attrs...)
	case resp.StatusCode >= 400:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("request rejected", attrs...)
	case duration > slowRequestThreshold:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("slow request", attrs...)
	default:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Debug("request completed", attrs...)
	}

	return resp, err
}

// withLogging returns a copy of hc whose transport logs through logger.
func withLogging(hc *http.Client, logger *slog.Logger) *http.Client {
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	out := *hc
	out.Transport = &loggingTransport{next: next, logger: logger}
	return &out
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
