package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// trackingBody counts Close calls and forwards them to closer, if set.
type trackingBody struct {
	io.Reader
	closer io.Closer
	closed atomic.Int32
}

func (b *trackingBody) Close() error {
	b.closed.Add(1)
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

func newBody(s string) *trackingBody {
	return &trackingBody{Reader: strings.NewReader(s)}
}

// chunkedReader returns its chunks one Read at a time.
type chunkedReader struct {
	chunks [][]byte
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	for len(r.chunks) > 0 && len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	return n, nil
}

// failingReader yields data then fails with err.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func splitEvery(b []byte, size int) [][]byte {
	var out [][]byte
	for len(b) > size {
		out = append(out, b[:size])
		b = b[size:]
	}
	return append(out, b)
}

const mixedStream = "event: suggestions\n" +
	`data: [{"label":"Zürich","value":"Flüge nach Zürich"}]` + "\n" +
	"\n" +
	`data: {"content":"Hello "}` + "\n" +
	"\n" +
	`data: {"content":"東京 ✈️"}` + "\r\n" +
	"\r\n" +
	": keep-alive comment\n" +
	"id: 4\n" +
	`data: {"steps":["Searching 🔎"],"action":"search"}` + "\n" +
	"\n" +
	"data: {not json}\n" +
	`data: {"type":"flight_cards","data":[{"offer_id":"off_1","rank":1,"slices":[{"origin":{"code":"LHR","city":"London"},"destination":{"code":"JFK","city":"New York"}}]}]}` + "\n" +
	"\n" +
	`data: {"session_id":"sess-42","suggestions":[{"label":"Book","value":"book it"}]}` + "\n" +
	`data: {"content":"tail"}`

func mixedStreamEvents() []Event {
	return []Event{
		Payload{Data: Suggestions{Suggestions: []models.Suggestion{{Label: "Zürich", Value: "Flüge nach Zürich"}}}},
		Token{Content: "Hello "},
		Token{Content: "東京 ✈️"},
		Thinking{Steps: []string{"Searching 🔎"}, Action: "search"},
		Payload{Data: FlightCards{Flights: []models.FlightCard{{
			OfferID: "off_1",
			Rank:    1,
			Slices: []models.FlightSlice{{
				Origin:      &models.Endpoint{Code: "LHR", City: "London"},
				Destination: &models.Endpoint{Code: "JFK", City: "New York"},
			}},
		}}}},
		Done{SessionID: "sess-42", Suggestions: []models.Suggestion{{Label: "Book", Value: "book it"}}},
	}
}

func TestDecoderEvents(t *testing.T) {
	dec := NewDecoder(nil)

	got, err := dec.Collect(context.Background(), newBody(mixedStream))
	require.NoError(t, err)

	if diff := cmp.Diff(mixedStreamEvents(), got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderChunkingInvariance(t *testing.T) {
	dec := NewDecoder(nil)
	raw := []byte(mixedStream)
	want := mixedStreamEvents()

	decode := func(t *testing.T, chunks [][]byte) {
		t.Helper()
		body := &trackingBody{Reader: &chunkedReader{chunks: chunks}}
		got, err := dec.Collect(context.Background(), body)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, int32(1), body.closed.Load())
	}

	t.Run("fixed chunk sizes", func(t *testing.T) {
		for size := 1; size <= len(raw); size++ {
			decode(t, splitEvery(bytes.Clone(raw), size))
		}
	})

	t.Run("single split at every offset", func(t *testing.T) {
		for i := 0; i <= len(raw); i++ {
			b := bytes.Clone(raw)
			decode(t, [][]byte{b[:i], b[i:]})
		}
	})
}

func TestDecoderTokenConcatenation(t *testing.T) {
	dec := NewDecoder(nil)
	raw := []byte(mixedStream)

	for size := 1; size <= 16; size++ {
		body := &trackingBody{Reader: &chunkedReader{chunks: splitEvery(bytes.Clone(raw), size)}}
		var text strings.Builder
		for ev, err := range dec.Events(context.Background(), body) {
			require.NoError(t, err)
			if tok, ok := ev.(Token); ok {
				text.WriteString(tok.Content)
			}
		}
		assert.Equal(t, "Hello 東京 ✈️", text.String(), "chunk size %d", size)
	}
}

func TestDecoderEventTypeScope(t *testing.T) {
	dec := NewDecoder(nil)

	t.Run("applies to the next data line only", func(t *testing.T) {
		stream := "event: suggestions\n" +
			`data: {"content":"first"}` + "\n" +
			`data: {"content":"second"}` + "\n"

		got, err := dec.Collect(context.Background(), newBody(stream))
		require.NoError(t, err)

		want := []Event{
			Payload{Data: Suggestions{Suggestions: []models.Suggestion{}}},
			Token{Content: "second"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("survives blank and empty data lines", func(t *testing.T) {
		stream := "event: ui_component\n" +
			"\n" +
			"data: \n" +
			`data: {"component":"date_picker"}` + "\n"

		got, err := dec.Collect(context.Background(), newBody(stream))
		require.NoError(t, err)
		require.Len(t, got, 1)

		p, ok := got[0].(Payload)
		require.True(t, ok)
		ui, ok := p.Data.(UIComponent)
		require.True(t, ok)
		assert.Equal(t, "date_picker", ui.Component())
	})

	t.Run("survives a malformed data line", func(t *testing.T) {
		stream := "event: suggestions\n" +
			"data: {broken\n" +
			`data: [{"label":"a","value":"b"}]` + "\n"

		got, err := dec.Collect(context.Background(), newBody(stream))
		require.NoError(t, err)

		want := []Event{
			Payload{Data: Suggestions{Suggestions: []models.Suggestion{{Label: "a", Value: "b"}}}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("later event line replaces earlier one", func(t *testing.T) {
		stream := "event: suggestions\n" +
			"event: message\n" +
			`data: {"content":"x"}` + "\n"

		got, err := dec.Collect(context.Background(), newBody(stream))
		require.NoError(t, err)
		assert.Equal(t, []Event{Token{Content: "x"}}, got)
	})
}

func TestDecoderLogsMalformedRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	dec := NewDecoder(logger)

	stream := "data: {oops}\n" +
		"data: " + strings.Repeat("x", 500) + "\n" +
		`data: {"content":"ok"}` + "\n"

	got, err := dec.Collect(context.Background(), newBody(stream))
	require.NoError(t, err)
	assert.Equal(t, []Event{Token{Content: "ok"}}, got)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "skipping malformed stream record"))
	assert.Contains(t, out, "level=WARN")
	assert.NotContains(t, out, strings.Repeat("x", 300), "logged record should be truncated")
}

func TestDecoderIgnoresUnknownLines(t *testing.T) {
	dec := NewDecoder(nil)

	stream := "retry: 1000\n" +
		"id: 7\n" +
		": comment\n" +
		"data:{\"content\":\"no space\"}\n" +
		"   \n" +
		"\t\r\n"

	got, err := dec.Collect(context.Background(), newBody(stream))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecoderDiscardsUnterminatedTail(t *testing.T) {
	dec := NewDecoder(nil)

	got, err := dec.Collect(context.Background(), newBody(`data: {"session_id":"s"}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecoderClosesBody(t *testing.T) {
	dec := NewDecoder(nil)

	t.Run("on EOF", func(t *testing.T) {
		body := newBody(`data: {"content":"a"}` + "\n")
		_, err := dec.Collect(context.Background(), body)
		require.NoError(t, err)
		assert.Equal(t, int32(1), body.closed.Load())
	})

	t.Run("on early break", func(t *testing.T) {
		body := newBody(`data: {"content":"a"}` + "\n" + `data: {"content":"b"}` + "\n")
		for range dec.Events(context.Background(), body) {
			break
		}
		assert.Equal(t, int32(1), body.closed.Load())
	})

	t.Run("on read error", func(t *testing.T) {
		reset := errors.New("connection reset")
		body := &trackingBody{Reader: &failingReader{
			data: []byte(`data: {"content":"a"}` + "\n" + `data: {"con`),
			err:  reset,
		}}

		got, err := dec.Collect(context.Background(), body)
		require.Error(t, err)
		assert.ErrorIs(t, err, reset)
		assert.Equal(t, []Event{Token{Content: "a"}}, got)
		assert.Equal(t, int32(1), body.closed.Load())
	})

	t.Run("on cancellation while blocked", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		body := &trackingBody{Reader: pr, closer: pr}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			_, _ = pw.Write([]byte(`data: {"content":"a"}` + "\n"))
		}()

		var (
			got    []Event
			gotErr error
		)
		for ev, err := range dec.Events(ctx, body) {
			if err != nil {
				gotErr = err
				break
			}
			got = append(got, ev)
			// The next read blocks until cancellation closes the body.
			cancel()
		}

		assert.Equal(t, []Event{Token{Content: "a"}}, got)
		assert.ErrorIs(t, gotErr, context.Canceled)
		assert.Equal(t, int32(1), body.closed.Load())
	})

	t.Run("when already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		body := newBody(`data: {"content":"a"}` + "\n")
		got, err := dec.Collect(ctx, body)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, got)
		assert.Equal(t, int32(1), body.closed.Load())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
