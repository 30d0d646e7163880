// Package history lists, restores and deletes saved conversations.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/raphaelgruber/tripchat/internal/client"
	"github.com/raphaelgruber/tripchat/internal/models"
)

// PageSize is how many conversations LoadConversations fetches.
const PageSize = 50

// ErrNotFound is returned when the backend has no such conversation.
var ErrNotFound = errors.New("conversation not found")

// ConversationAPI is the backend side of the history.
type ConversationAPI interface {
	ListConversations(ctx context.Context, limit, offset int) (*models.ConversationList, error)
	GetConversation(ctx context.Context, sessionID string) (*models.ConversationDetail, error)
	DeleteConversation(ctx context.Context, sessionID string) error
}

// Restorer loads a saved conversation into a chat session.
type Restorer interface {
	RestoreSession(sessionID string, messages []models.ChatMessage, itinerary *models.ItineraryData, flightCards []models.FlightCard)
}

// Store caches the conversation list. All methods are safe for concurrent use.
type Store struct {
	api      ConversationAPI
	restorer Restorer
	logger   *slog.Logger
	now      func() time.Time

	mu            sync.RWMutex
	conversations []models.ConversationSummary
	loading       bool
	err           string
}

// New creates a store. restorer may be nil when conversations are only listed.
func New(api ConversationAPI, restorer Restorer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{api: api, restorer: restorer, logger: logger, now: time.Now}
}

// Conversations returns the last loaded list.
func (s *Store) Conversations() []models.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversations)
}

// Loading reports whether a request is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last error message, or "" if the last request succeeded.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *Store) end(err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
	}
	s.mu.Unlock()
}

// LoadConversations fetches the first page of saved conversations.
func (s *Store) LoadConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	s.begin()
	list, err := s.api.ListConversations(ctx, PageSize, 0)
	if err != nil {
		err = fmt.Errorf("load conversations: %w", err)
		s.end(err)
		return nil, err
	}

	s.mu.Lock()
	s.conversations = list.Conversations
	s.mu.Unlock()
	s.end(nil)

	s.logger.Debug("conversations loaded", "count", len(list.Conversations), "total", list.Total)
	return slices.Clone(list.Conversations), nil
}

// LoadConversation fetches a conversation and restores it into the session.
func (s *Store) LoadConversation(ctx context.Context, sessionID string) (*models.ConversationDetail, error) {
	s.begin()
	detail, err := s.api.GetConversation(ctx, sessionID)
	if err != nil {
		err = fmt.Errorf("load conversation %s: %w", sessionID, notFound(err))
		s.end(err)
		return nil, err
	}

	if s.restorer != nil {
		s.restorer.RestoreSession(sessionID, s.ChatMessages(detail), detail.ItineraryData, detail.FlightCards)
	}
	s.end(nil)

	s.logger.Debug("conversation restored", "session_id", sessionID, "messages", len(detail.Messages))
	return detail, nil
}

// DeleteConversation deletes a conversation and drops it from the list.
func (s *Store) DeleteConversation(ctx context.Context, sessionID string) error {
	s.begin()
	if err := s.api.DeleteConversation(ctx, sessionID); err != nil {
		err = fmt.Errorf("delete conversation %s: %w", sessionID, notFound(err))
		s.end(err)
		return err
	}

	s.mu.Lock()
	s.conversations = slices.DeleteFunc(s.conversations, func(c models.ConversationSummary) bool {
		return c.SessionID == sessionID
	})
	s.mu.Unlock()
	s.end(nil)
	return nil
}

// ChatMessages converts stored messages to chat messages with ids
// restored_<index>. Unparseable or missing timestamps become the current time.
func (s *Store) ChatMessages(detail *models.ConversationDetail) []models.ChatMessage {
	out := make([]models.ChatMessage, len(detail.Messages))
	for i, m := range detail.Messages {
		out[i] = models.ChatMessage{
			ID:        "restored_" + strconv.Itoa(i),
			Role:      models.Role(m.Role),
			Content:   m.Content,
			Timestamp: s.parseTimestamp(m.Timestamp),
		}
	}
	return out
}

// timestampLayouts are tried in order; the backend emits naive ISO-8601.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (s *Store) parseTimestamp(v string) time.Time {
	if v == "" {
		return s.now()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	s.logger.Debug("unparseable message timestamp", "timestamp", v)
	return s.now()
}

func notFound(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
