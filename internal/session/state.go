package session

import "github.com/raphaelgruber/tripchat/internal/models"

// State is a snapshot of a chat session.
//
// FlightCards, Suggestions and ThoughtProcess hold the most recent values of
// the current turn and are cleared when a new message is sent.
// ItineraryData and ItineraryGrounding persist across turns until replaced.
// IsLoading and IsStreaming are independent flags; in the current flow they
// are set and cleared together.
type State struct {
	SessionID          string
	Messages           []models.ChatMessage
	FlightCards        []models.FlightCard
	Suggestions        []models.Suggestion
	ThoughtProcess     []string
	ItineraryData      *models.ItineraryData
	ItineraryGrounding *models.ItineraryGrounding
	IsLoading          bool
	IsStreaming        bool
	Error              string
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.Messages != nil {
		out.Messages = make([]models.ChatMessage, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	out.FlightCards = models.CloneFlightCards(s.FlightCards)
	out.Suggestions = models.CloneSuggestions(s.Suggestions)
	out.ThoughtProcess = models.CloneStrings(s.ThoughtProcess)
	out.ItineraryData = s.ItineraryData.Clone()
	out.ItineraryGrounding = s.ItineraryGrounding.Clone()
	return out
}

// StreamingMessage returns the message currently being streamed, if any.
func (s State) StreamingMessage() (models.ChatMessage, bool) {
	for _, m := range s.Messages {
		if m.IsStreaming {
			return m, true
		}
	}
	return models.ChatMessage{}, false
}

func (s *State) message(id string) *models.ChatMessage {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

func (s *State) removeMessage(id string) {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages = append(s.Messages[:i:i], s.Messages[i+1:]...)
			return
		}
	}
}
