package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raphaelgruber/tripchat/internal/models"
)

// =============================================================================
// CHAT
// =============================================================================

// SendMessage uses the non-streaming chat endpoint.
func (c *Client) SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	req.Stream = false
	var resp models.ChatResponse
	if err := c.Execute(ctx, http.MethodPost, "/chat/message", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations returns a page of the user's saved conversations.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*models.ConversationList, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var list models.ConversationList
	if err := c.Execute(ctx, http.MethodGet, "/conversations", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetConversation returns a conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, sessionID string) (*models.ConversationDetail, error) {
	var detail models.ConversationDetail
	if err := c.Execute(ctx, http.MethodGet, "/conversations/"+url.PathEscape(sessionID), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteConversation deletes a saved conversation.
func (c *Client) DeleteConversation(ctx context.Context, sessionID string) error {
	return c.Execute(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(sessionID), nil, nil, nil)
}

// =============================================================================
// AIRPORTS & OFFERS
// =============================================================================

// NearestAirport asks the backend for the airport closest to the caller.
func (c *Client) NearestAirport(ctx context.Context) (*models.NearestAirport, error) {
	var resp models.NearestAirport
	if err := c.Execute(ctx, http.MethodGet, "/nearest-airport/nearest-airport", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAirports finds airports matching query. An empty query returns nil
// without contacting the backend.
func (c *Client) SearchAirports(ctx context.Context, query string, limit int) ([]models.Airport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}
	var airports []models.Airport
	if err := c.Execute(ctx, http.MethodGet, "/airports/search", params, nil, &airports); err != nil {
		return nil, err
	}
	return airports, nil
}

// GetOfferDetails fetches the bookable details of an offer, including
// ancillary services and any price change since the search.
func (c *Client) GetOfferDetails(ctx context.Context, offerID string) (*models.OfferResponse, error) {
	params := url.Values{
		"include_services":     {"true"},
		"detect_price_changes": {"true"},
	}
	var resp models.OfferResponse
	if err := c.Execute(ctx, http.MethodGet, "/duffel-search/offers/"+url.PathEscape(offerID), params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
