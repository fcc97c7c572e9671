// Package ai talks to the external responder service consulted for @AI
// mentions. Response generation lives entirely in that service; this client
// only forwards the mentioning message and returns the reply text.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type replyRequest struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

type replyResponse struct {
	Text string `json:"text"`
}

func (c *Client) Reply(ctx context.Context, roomID, senderID, text string) (string, error) {
	body, err := json.Marshal(replyRequest{RoomID: roomID, SenderID: senderID, Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode responder request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build responder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("responder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("responder returned status %d", resp.StatusCode)
	}

	var reply replyResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode responder reply: %w", err)
	}
	return reply.Text, nil
}
