package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"ride_share/internal/domain"
)

// MessageAPI is the REST side of the chat contract. The socket only
// fans messages out; durable writes and history reads go through here.
type MessageAPI interface {
	History(ctx context.Context, tripID, otherUserID uuid.UUID) ([]domain.Message, error)
	Send(ctx context.Context, tripID, receiverID uuid.UUID, content, messageType string) (*domain.Message, error)
	MarkConversationRead(ctx context.Context, tripID, otherUserID uuid.UUID) (int64, error)
	Conversations(ctx context.Context) ([]domain.Conversation, error)
}

type httpAPI struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewMessageAPI talks to the server's /api/v1 message endpoints with
// the given bearer token.
func NewMessageAPI(baseURL, token string) MessageAPI {
	return &httpAPI{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *httpAPI) History(ctx context.Context, tripID, otherUserID uuid.UUID) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("tripId", tripID.String())
	q.Set("userId", otherUserID.String())

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/messages?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (a *httpAPI) Send(ctx context.Context, tripID, receiverID uuid.UUID, content, messageType string) (*domain.Message, error) {
	body := map[string]interface{}{
		"tripId":     tripID,
		"receiverId": receiverID,
		"content":    content,
	}
	if messageType != "" {
		body["messageType"] = messageType
	}

	var resp struct {
		Data *domain.Message `json:"data"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/messages", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("server returned no message")
	}
	return resp.Data, nil
}

func (a *httpAPI) MarkConversationRead(ctx context.Context, tripID, otherUserID uuid.UUID) (int64, error) {
	body := map[string]interface{}{
		"tripId": tripID,
		"userId": otherUserID,
	}

	var resp struct {
		Count int64 `json:"count"`
	}
	if err := a.do(ctx, http.MethodPut, "/api/v1/messages/read", body, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (a *httpAPI) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var resp struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (a *httpAPI) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
