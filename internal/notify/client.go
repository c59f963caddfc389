// Package notify posts report messages to the chat gateway's REST API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the chat gateway over HTTP. It satisfies the
// daily.Notifier interface.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Deliver posts text as a message into the given channel.
func (c *Client) Deliver(ctx context.Context, channelID, text string) error {
	payload := map[string]any{
		"content": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID),
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	var res apiResponse[message]
	if err := c.do(req, &res); err != nil {
		return fmt.Errorf("deliver to %s: %w", channelID, err)
	}
	return nil
}

type message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type apiResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description"`
}

func (c *Client) do(req *http.Request, out *apiResponse[message]) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("gateway http status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	if !out.Ok {
		if out.Description == "" {
			return errors.New("gateway rejected the message")
		}
		return errors.New(out.Description)
	}
	return nil
}
