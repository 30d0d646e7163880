// Package stream decodes the chat backend's server-sent-event stream into
// typed chat events.
package stream

import (
	"encoding/json"

	"github.com/raphaelgruber/tripchat/internal/models"
)

// Kind discriminates the top-level event variants.
type Kind string

const (
	KindToken       Kind = "token"
	KindThinking    Kind = "thinking"
	KindDataPayload Kind = "data_payload"
	KindDone        Kind = "done"
	KindError       Kind = "error"
)

// Event is one classified frame of the stream. The set of implementations is
// closed: Token, Thinking, Payload, Done and Error.
type Event interface {
	Kind() Kind
	event()
}

// Token carries a fragment of assistant text.
type Token struct {
	Content string
}

// Thinking carries the full current list of reasoning steps.
// Steps is nil when the frame had "steps": null.
type Thinking struct {
	Steps  []string
	Action string
}

// Payload carries structured data for the side-channel UI state.
type Payload struct {
	Data PayloadData
}

// Done is the terminal frame of a successful turn.
type Done struct {
	SessionID   string
	Suggestions []models.Suggestion // nil when absent
}

// Error is an explicit error frame sent by the backend mid-stream.
type Error struct {
	Message string
}

func (Token) Kind() Kind    { return KindToken }
func (Thinking) Kind() Kind { return KindThinking }
func (Payload) Kind() Kind  { return KindDataPayload }
func (Done) Kind() Kind     { return KindDone }
func (Error) Kind() Kind    { return KindError }

func (Token) event()    {}
func (Thinking) event() {}
func (Payload) event()  {}
func (Done) event()     {}
func (Error) event()    {}

// PayloadType discriminates data payloads.
type PayloadType string

const (
	PayloadFlightCards PayloadType = "flight_cards"
	PayloadItinerary   PayloadType = "itinerary"
	PayloadSuggestions PayloadType = "suggestions"
	PayloadUIComponent PayloadType = "ui_component"
	PayloadTripSaved   PayloadType = "trip_saved"
)

// PayloadData is the closed set of data payload variants: FlightCards,
// Itinerary, Suggestions, UIComponent and TripSaved.
type PayloadData interface {
	PayloadType() PayloadType
	payload()
}

// FlightCards is a flight search result. Flights is nil when the frame did
// not carry a list; Suggestions is nil when absent.
type FlightCards struct {
	Flights     []models.FlightCard
	Suggestions []models.Suggestion
}

// Itinerary is a generated trip plan with optional grounding.
type Itinerary struct {
	Itinerary   *models.ItineraryData
	Grounding   *models.ItineraryGrounding
	Suggestions []models.Suggestion
}

// Suggestions replaces the follow-up chips.
type Suggestions struct {
	Suggestions []models.Suggestion
}

// UIComponent is an opaque instruction for the UI layer.
type UIComponent struct {
	Fields map[string]json.RawMessage
}

// TripSaved reports that the backend persisted a trip. Fields holds the
// frame verbatim.
type TripSaved struct {
	Fields map[string]json.RawMessage
}

func (FlightCards) PayloadType() PayloadType { return PayloadFlightCards }
func (Itinerary) PayloadType() PayloadType   { return PayloadItinerary }
func (Suggestions) PayloadType() PayloadType { return PayloadSuggestions }
func (UIComponent) PayloadType() PayloadType { return PayloadUIComponent }
func (TripSaved) PayloadType() PayloadType   { return PayloadTripSaved }

func (FlightCards) payload() {}
func (Itinerary) payload()   {}
func (Suggestions) payload() {}
func (UIComponent) payload() {}
func (TripSaved) payload()   {}

// Component returns the ui_component's "component" field, if it is a string.
func (u UIComponent) Component() string {
	var name string
	if raw, ok := u.Fields["component"]; ok {
		_ = json.Unmarshal(raw, &name)
	}
	return name
}

// TripID returns the saved trip id, or 0 if the frame did not carry one.
func (t TripSaved) TripID() int64 {
	var id int64
	for _, key := range []string{"trip_id", "saved_trip_id", "id"} {
		if raw, ok := t.Fields[key]; ok && json.Unmarshal(raw, &id) == nil {
			return id
		}
	}
	return 0
}

// ProtocolError is returned when the backend sends an explicit error frame.
// Its message is the backend's text, verbatim.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}
