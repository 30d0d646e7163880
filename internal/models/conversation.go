package models

// ConversationSummary is one entry in the conversation history list.
type ConversationSummary struct {
	SessionID     string `json:"session_id" yaml:"session_id"`
	Title         string `json:"title" yaml:"title"`
	TripID        *int64 `json:"trip_id,omitempty" yaml:"trip_id,omitempty"`
	LastMessageAt string `json:"last_message_at,omitempty" yaml:"last_message_at,omitempty"`
	MessageCount  int    `json:"message_count" yaml:"message_count"`
	Preview       string `json:"preview,omitempty" yaml:"preview,omitempty"`
	HasFlights    bool   `json:"has_flights" yaml:"has_flights"`
	HasItinerary  bool   `json:"has_itinerary" yaml:"has_itinerary"`
}

// ConversationList is a page of conversation summaries.
type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations" yaml:"conversations"`
	Total         int                   `json:"total" yaml:"total"`
}

// ConversationMessage is a stored message as the backend returns it.
type ConversationMessage struct {
	Role      string `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// ConversationDetail is a full saved conversation.
type ConversationDetail struct {
	SessionID          string                `json:"session_id" yaml:"session_id"`
	Title              string                `json:"title" yaml:"title"`
	Messages           []ConversationMessage `json:"messages" yaml:"messages"`
	TripID             *int64                `json:"trip_id,omitempty" yaml:"trip_id,omitempty"`
	FlightCards        []FlightCard          `json:"flight_cards,omitempty" yaml:"flight_cards,omitempty"`
	FlightCardsExpired bool                  `json:"flight_cards_expired,omitempty" yaml:"flight_cards_expired,omitempty"`
	ItineraryData      *ItineraryData        `json:"itinerary_data,omitempty" yaml:"itinerary_data,omitempty"`
	ItineraryGrounding *ItineraryGrounding   `json:"itinerary_grounding,omitempty" yaml:"itinerary_grounding,omitempty"`
	CreatedAt          string                `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt          string                `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
