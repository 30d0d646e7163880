// Package session implements the chat session state machine: it sends a
// message, folds the streamed reply into observable state and hands flight
// results to a route sink.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/tripchat/internal/metrics"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/stream"
)

// Transport opens the streaming chat request.
type Transport interface {
	OpenStream(ctx context.Context, req models.ChatRequest) (io.ReadCloser, error)
}

// PayloadListener receives payloads the session does not fold into its own
// state (ui_component and trip_saved). It is called from the sending
// goroutine and must not call back into the session synchronously.
type PayloadListener func(stream.PayloadData)

// Session is one conversation. All methods are safe for concurrent use.
type Session struct {
	transport Transport
	decoder   *stream.Decoder
	logger    *slog.Logger
	collector *metrics.Collector
	onPayload PayloadListener
	sink      RouteSink
	locator   Locator

	mu        sync.Mutex
	state     State
	active    *turn
	listeners []listener
	nextID    int

	// notifyMu keeps listener calls in mutation order.
	notifyMu sync.Mutex

	routeMu  sync.Mutex
	routeGen uint64
	routes   sync.WaitGroup
}

type listener struct {
	id int
	fn func(State)
}

// turn is one in-flight SendMessage.
type turn struct {
	cancel        context.CancelFunc
	placeholderID string
	start         time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithRouteSink receives projected flight routes.
func WithRouteSink(sink RouteSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithLocator supplies the fallback origin for route projection.
func WithLocator(l Locator) Option {
	return func(s *Session) { s.locator = l }
}

// WithCollector records turn statistics.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Session) { s.collector = c }
}

// WithPayloadListener forwards ui_component and trip_saved payloads.
func WithPayloadListener(fn PayloadListener) Option {
	return func(s *Session) { s.onPayload = fn }
}

// WithDecoder replaces the stream decoder.
func WithDecoder(d *stream.Decoder) Option {
	return func(s *Session) { s.decoder = d }
}

// New creates an empty session that sends messages through transport.
func New(transport Transport, opts ...Option) *Session {
	s := &Session{transport: transport}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.decoder == nil {
		s.decoder = stream.NewDecoder(s.logger)
	}
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every state change, in
// the order the changes were made. fn must not call SendMessage, ClearChat or
// RestoreSession synchronously.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Wait blocks until pending route projections have finished.
func (s *Session) Wait() {
	s.routes.Wait()
}

// notifyLocked snapshots the state, releases s.mu and delivers the snapshot.
// Caller must hold s.mu.
func (s *Session) notifyLocked() {
	snap := s.state.Clone()
	listeners := make([]func(State), len(s.listeners))
	for i, l := range s.listeners {
		listeners[i] = l.fn
	}
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// update applies fn for turn t and notifies listeners. It reports false,
// without applying fn, when t is no longer the active turn.
func (s *Session) update(t *turn, fn func(*State)) bool {
	s.mu.Lock()
	if s.active != t {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	s.notifyLocked()
	return true
}

// supersedeLocked cancels the active turn, if any. Caller must hold s.mu.
func (s *Session) supersedeLocked() bool {
	t := s.active
	if t == nil {
		return false
	}
	t.cancel()
	s.active = nil
	return true
}

// accumulator collects what one turn has received so far.
type accumulator struct {
	content     strings.Builder
	sessionID   string
	flights     []models.FlightCard
	thoughts    []string
	itinerary   *models.ItineraryData
	grounding   *models.ItineraryGrounding
	suggestions []models.Suggestion

	frames int64
	tokens int64
}

// SendMessage sends text and streams the reply into the session state.
//
// It returns once the turn has finished. On failure the assistant
// placeholder is removed, State().Error holds the error text and the error
// is returned. It returns ErrTurnInFlight without touching state if another
// turn is running, and ErrSuperseded if ClearChat or RestoreSession replaced
// the session meanwhile. Callers are expected to reject empty input.
func (s *Session) SendMessage(ctx context.Context, text string, userID *int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	now := time.Now()
	t := &turn{cancel: cancel, placeholderID: uuid.NewString(), start: now}
	s.active = t

	s.state.Messages = append(s.state.Messages,
		models.ChatMessage{ID: uuid.NewString(), Role: models.RoleUser, Content: text, Timestamp: now},
		models.ChatMessage{ID: t.placeholderID, Role: models.RoleAssistant, Timestamp: now, IsStreaming: true},
	)
	s.state.Error = ""
	s.state.FlightCards = nil
	s.state.Suggestions = nil
	s.state.ThoughtProcess = nil
	s.state.IsLoading = true
	s.state.IsStreaming = true

	req := models.ChatRequest{
		Message:   text,
		SessionID: s.state.SessionID,
		UserID:    userID,
		Stream:    true,
	}
	s.notifyLocked()

	s.logger.Debug("turn started", "session_id", req.SessionID, "message_len", len(text))

	acc := &accumulator{sessionID: req.SessionID}
	err := s.stream(ctx, t, req, acc)
	if err == nil {
		if !s.finish(t, acc) {
			return ErrSuperseded
		}
		return nil
	}
	if errors.Is(err, ErrSuperseded) || !s.abort(t, acc, err) {
		return ErrSuperseded
	}
	return err
}

// AddSuggestionClick sends the suggestion's value as a new message.
func (s *Session) AddSuggestionClick(ctx context.Context, suggestion models.Suggestion) error {
	return s.SendMessage(ctx, suggestion.Value, nil)
}

func (s *Session) stream(ctx context.Context, t *turn, req models.ChatRequest, acc *accumulator) error {
	body, err := s.transport.OpenStream(ctx, req)
	if err != nil {
		return err
	}

	for ev, err := range s.decoder.Events(ctx, body) {
		if err != nil {
			return err
		}
		acc.frames++
		if err := s.apply(t, acc, ev); err != nil {
			return err
		}
	}
	return nil
}

// apply folds one event into the accumulator and the published state.
func (s *Session) apply(t *turn, acc *accumulator, ev stream.Event) error {
	published := true

	switch ev := ev.(type) {
	case stream.Token:
		if ev.Content == "" {
			return nil
		}
		if acc.tokens == 0 {
			s.collector.RecordTiming(metrics.OpFirstToken, time.Since(t.start))
		}
		acc.tokens++
		acc.content.WriteString(ev.Content)
		content := acc.content.String()
		published = s.update(t, func(st *State) {
			if m := st.message(t.placeholderID); m != nil {
				m.Content = content
			}
		})

	case stream.Thinking:
		if ev.Steps == nil {
			return nil
		}
		acc.thoughts = ev.Steps
		published = s.update(t, func(st *State) { st.ThoughtProcess = ev.Steps })

	case stream.Payload:
		return s.applyPayload(t, acc, ev.Data)

	case stream.Done:
		if ev.SessionID != "" {
			acc.sessionID = ev.SessionID
		}
		if ev.Suggestions != nil {
			acc.suggestions = ev.Suggestions
			published = s.update(t, func(st *State) { st.Suggestions = ev.Suggestions })
		}

	case stream.Error:
		msg := ev.Message
		if msg == "" {
			msg = streamErrorMessage
		}
		return &stream.ProtocolError{Message: msg}
	}

	if !published {
		return ErrSuperseded
	}
	return nil
}

func (s *Session) applyPayload(t *turn, acc *accumulator, data stream.PayloadData) error {
	published := true

	switch p := data.(type) {
	case stream.FlightCards:
		if p.Flights == nil {
			return nil
		}
		acc.flights = p.Flights
		if p.Suggestions != nil {
			acc.suggestions = p.Suggestions
		}
		suggestions := acc.suggestions
		published = s.update(t, func(st *State) {
			st.FlightCards = p.Flights
			st.Suggestions = suggestions
		})
		if published {
			s.projectRoute(p.Flights)
		}

	case stream.Itinerary:
		if p.Itinerary == nil {
			return nil
		}
		acc.itinerary = p.Itinerary
		acc.grounding = p.Grounding
		if p.Suggestions != nil {
			acc.suggestions = p.Suggestions
		}
		suggestions := acc.suggestions
		published = s.update(t, func(st *State) {
			st.ItineraryData = p.Itinerary
			st.ItineraryGrounding = p.Grounding
			st.Suggestions = suggestions
		})

	case stream.Suggestions:
		if p.Suggestions == nil {
			return nil
		}
		acc.suggestions = p.Suggestions
		published = s.update(t, func(st *State) { st.Suggestions = p.Suggestions })

	case stream.UIComponent, stream.TripSaved:
		if s.onPayload != nil && s.isActive(t) {
			s.onPayload(p)
		}
	}

	if !published {
		return ErrSuperseded
	}
	return nil
}

func (s *Session) isActive(t *turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == t
}

// finish freezes the placeholder with the turn's attachments.
func (s *Session) finish(t *turn, acc *accumulator) bool {
	ok := s.update(t, func(st *State) {
		if m := st.message(t.placeholderID); m != nil {
			m.Content = acc.content.String()
			m.IsStreaming = false
			m.FlightCards = models.NonEmpty(acc.flights)
			m.ThoughtProcess = models.NonEmpty(acc.thoughts)
			m.Suggestions = models.NonEmpty(acc.suggestions)
			m.ItineraryData = acc.itinerary
		}
		st.SessionID = acc.sessionID
		st.Suggestions = acc.suggestions
		st.IsLoading = false
		st.IsStreaming = false
		s.active = nil
	})
	if !ok {
		return false
	}

	elapsed := time.Since(t.start)
	s.collector.RecordStream(metrics.OpTurn, elapsed, acc.frames, acc.tokens)
	s.logger.Debug("turn finished",
		"session_id", acc.sessionID,
		"frames", acc.frames,
		"tokens", acc.tokens,
		"flight_cards", len(acc.flights),
		"duration_ms", elapsed.Milliseconds())
	return true
}

// abort rolls the turn back after err: the placeholder goes, the user
// message stays.
func (s *Session) abort(t *turn, acc *accumulator, err error) bool {
	ok := s.update(t, func(st *State) {
		st.removeMessage(t.placeholderID)
		st.Error = err.Error()
		st.IsLoading = false
		st.IsStreaming = false
		s.active = nil
	})
	if !ok {
		return false
	}

	s.collector.RecordStream(metrics.OpTurnFailed, time.Since(t.start), acc.frames, acc.tokens)
	s.logger.Warn("turn failed", "error", err, "frames", acc.frames)
	return true
}

// ClearChat empties the session and the route sink. A running turn is
// cancelled and makes no further changes.
func (s *Session) ClearChat() {
	s.mu.Lock()
	if s.supersedeLocked() {
		s.logger.Debug("turn superseded by clear")
	}
	s.state = State{}
	s.notifyLocked()

	s.resetRoutes(true)
}

// RestoreSession replaces the conversation with a saved one. The itinerary
// grounding is cleared; Error is kept. The loading flags are only cleared if
// a running turn had to be cancelled.
func (s *Session) RestoreSession(sessionID string, messages []models.ChatMessage, itinerary *models.ItineraryData, flightCards []models.FlightCard) {
	restored := make([]models.ChatMessage, len(messages))
	for i, m := range messages {
		restored[i] = m.Clone()
		restored[i].IsStreaming = false
	}

	s.mu.Lock()
	if s.supersedeLocked() {
		s.logger.Debug("turn superseded by restore", "session_id", sessionID)
		s.state.IsLoading = false
		s.state.IsStreaming = false
	}
	s.state.SessionID = sessionID
	s.state.Messages = restored
	s.state.ItineraryData = itinerary.Clone()
	s.state.ItineraryGrounding = nil
	s.state.FlightCards = models.CloneFlightCards(flightCards)
	s.notifyLocked()

	s.resetRoutes(false)
}
