// Package models defines the wire and state types shared by the tripchat client.
package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SuggestionType classifies what a suggestion chip does when clicked.
type SuggestionType string

const (
	SuggestionMagicAction SuggestionType = "magic_action"
	SuggestionAction      SuggestionType = "action"
	SuggestionUITrigger   SuggestionType = "ui_trigger"
	SuggestionQuery       SuggestionType = "query"
)

// Suggestion is a follow-up prompt offered by the assistant.
// Value is the text sent when the suggestion is clicked.
type Suggestion struct {
	Label string         `json:"label" yaml:"label"`
	Value string         `json:"value" yaml:"value"`
	Type  SuggestionType `json:"type,omitempty" yaml:"type,omitempty"`
}

// ChatMessage is one entry in the conversation.
//
// The attachment fields are nil unless the turn produced at least one item;
// they are never set to empty non-nil values.
type ChatMessage struct {
	ID             string         `json:"id" yaml:"id"`
	Role           Role           `json:"role" yaml:"role"`
	Content        string         `json:"content" yaml:"content"`
	Timestamp      time.Time      `json:"timestamp" yaml:"timestamp"`
	IsStreaming    bool           `json:"is_streaming,omitempty" yaml:"is_streaming,omitempty"`
	FlightCards    []FlightCard   `json:"flight_cards,omitempty" yaml:"flight_cards,omitempty"`
	Suggestions    []Suggestion   `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	ThoughtProcess []string       `json:"thought_process,omitempty" yaml:"thought_process,omitempty"`
	ItineraryData  *ItineraryData `json:"itinerary_data,omitempty" yaml:"itinerary_data,omitempty"`
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	out.FlightCards = CloneFlightCards(m.FlightCards)
	out.Suggestions = CloneSuggestions(m.Suggestions)
	out.ThoughtProcess = CloneStrings(m.ThoughtProcess)
	out.ItineraryData = m.ItineraryData.Clone()
	return out
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
	Stream    bool   `json:"stream"`
	SaveTrip  bool   `json:"save_trip,omitempty"`
}

// ChatResponse is returned by the non-streaming chat endpoint.
type ChatResponse struct {
	Response       string         `json:"response"`
	SessionID      string         `json:"session_id"`
	FlightCards    []FlightCard   `json:"flight_cards,omitempty"`
	SearchInfo     map[string]any `json:"search_info,omitempty"`
	UIComponents   map[string]any `json:"ui_components,omitempty"`
	Suggestions    []Suggestion   `json:"suggestions,omitempty"`
	ItineraryData  *ItineraryData `json:"itinerary_data,omitempty"`
	SavedTripID    *int64         `json:"saved_trip_id,omitempty"`
	ThoughtProcess []string       `json:"thought_process,omitempty"`
}

// CloneSuggestions copies a suggestion list, preserving nil.
func CloneSuggestions(in []Suggestion) []Suggestion {
	if in == nil {
		return nil
	}
	out := make([]Suggestion, len(in))
	copy(out, in)
	return out
}

// CloneStrings copies a string slice, preserving nil.
func CloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// NonEmpty returns in when it has at least one element and nil otherwise.
func NonEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return in
}
