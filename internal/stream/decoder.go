package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
)

const (
	eventPrefix = "event: "
	dataPrefix  = "data: "

	// maxLoggedRecord caps how much of a malformed record is logged.
	maxLoggedRecord = 200
)

// Decoder turns an SSE response body into a sequence of events.
// A Decoder is stateless and safe for concurrent use; the per-stream state
// lives in each sequence returned by Events.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder that logs skipped records to logger.
// A nil logger discards them.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger}
}

// Events returns a single-use sequence of events read from body.
//
// body is closed when the sequence ends, whichever way it ends: EOF, a read
// error, cancellation of ctx, or the consumer breaking out of the loop.
// Cancelling ctx also unblocks a pending read. A read failure is yielded once
// as a non-nil error and ends the sequence; malformed records are logged and
// skipped. An unterminated final line is discarded.
func (d *Decoder) Events(ctx context.Context, body io.ReadCloser) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		closeBody := sync.OnceValue(body.Close)
		defer closeBody()
		stop := context.AfterFunc(ctx, func() { closeBody() })
		defer stop()

		r := bufio.NewReader(body)
		var f framer
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			line, err := r.ReadBytes('\n')
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(nil, ctxErr)
					return
				}
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, fmt.Errorf("read stream: %w", err))
				return
			}

			ev, err := f.feed(line)
			if err != nil {
				d.logger.Warn("skipping malformed stream record",
					"error", err,
					"event", f.eventType,
					"data", truncate(f.lastData, maxLoggedRecord))
				continue
			}
			if ev == nil {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Collect drains body and returns every event in order. It is meant for
// callers that do not need incremental delivery.
func (d *Decoder) Collect(ctx context.Context, body io.ReadCloser) ([]Event, error) {
	var events []Event
	for ev, err := range d.Events(ctx, body) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// framer holds the per-stream line state: the event type announced by the
// most recent "event:" line, which applies to exactly one data line.
type framer struct {
	eventType string
	lastData  string
}

// feed processes one complete line (including its terminator). It returns a
// nil event for lines that produce nothing.
func (f *framer) feed(raw []byte) (Event, error) {
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	line := string(raw)
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(line, eventPrefix):
		f.eventType = strings.TrimSpace(line[len(eventPrefix):])
		return nil, nil

	case strings.HasPrefix(line, dataPrefix):
		data := line[len(dataPrefix):]
		if data == "" {
			return nil, nil
		}
		f.lastData = data
		ev, err := classify(f.eventType, []byte(data))
		if err != nil {
			return nil, err
		}
		f.eventType = ""
		return ev, nil
	}

	// id:, retry:, comments and anything else.
	return nil, nil
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
