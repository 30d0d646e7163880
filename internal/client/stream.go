package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/raphaelgruber/tripchat/internal/models"
)

// OpenStream posts req to the streaming chat endpoint and returns the SSE
// body. The caller owns the body and must close it. Non-2xx responses are
// returned as *StatusError with the body already drained and closed.
func (c *Client) OpenStream(ctx context.Context, req models.ChatRequest) (io.ReadCloser, error) {
	req.Stream = true
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/message/stream", nil, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp, body)
	}
	return resp.Body, nil
}
