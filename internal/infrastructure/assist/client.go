package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopassist/internal/domain/entity"
	"shopassist/pkg/errors"
)

// Client calls the reply-generation service that powers AI suggestions in the
// support inbox. The service is a black box: conversation history in, one
// suggested reply out.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Messages []chatTurn `json:"messages"`
}

type generateResponse struct {
	Reply string `json:"reply"`
}

// Generate maps the recent conversation history onto the service's role model
// (customer turns become "user", everything else "assistant") and returns the
// suggested reply text.
func (c *Client) Generate(ctx context.Context, history []*entity.Message) (string, error) {
	turns := make([]chatTurn, 0, len(history))
	for _, message := range history {
		role := "assistant"
		if message.Sender == entity.SenderCustomer {
			role = "user"
		}
		turns = append(turns, chatTurn{Role: role, Content: message.Text})
	}

	payload, err := json.Marshal(generateRequest{Messages: turns})
	if err != nil {
		return "", errors.Internal("Failed to encode suggestion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Internal("Failed to build suggestion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.SuggestionFailed("Suggestion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.SuggestionFailed(fmt.Sprintf("Suggestion service returned status %d", resp.StatusCode), nil)
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.SuggestionFailed("Failed to decode suggestion response", err)
	}

	return body.Reply, nil
}
