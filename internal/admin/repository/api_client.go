package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"support_chat_service/internal/admin/domain"
)

const defaultTimeout = 30 * time.Second

// Session 明確傳遞的登入資訊
// token 為空時照樣送出請求，只是不帶 Authorization header
type Session struct {
	Token   string
	AdminID string
}

// SendMessageRequest POST /api/messages body
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
	SenderType     string `json:"senderType"`
	MessageType    string `json:"messageType"`
	TempID         string `json:"tempId,omitempty"`
	FileURL        string `json:"fileUrl,omitempty"`
}

// SendMessageResult send API 回覆，id 用來對回樂觀訊息
type SendMessageResult struct {
	ID        string `json:"id"`
	TempID    string `json:"tempId"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// ChatAPI chat backend 的 REST 介面
type ChatAPI interface {
	ListConversations(ctx context.Context, limit int) ([]domain.ConversationRecord, error)
	GetMessages(ctx context.Context, convID string) ([]domain.MessageRecord, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error)
	MarkRead(ctx context.Context, convID string) error
	UpdateStatus(ctx context.Context, convID, status string) error
}

type apiClient struct {
	baseURL    string
	session    Session
	httpClient *http.Client
}

// NewAPIClient create ChatAPI against baseURL (例如 http://localhost:8084)
func NewAPIClient(baseURL string, session Session) ChatAPI {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ListConversations GET /api/conversations?limit=N
func (c *apiClient) ListConversations(ctx context.Context, limit int) ([]domain.ConversationRecord, error) {
	var out struct {
		Conversations []domain.ConversationRecord `json:"conversations"`
	}
	path := fmt.Sprintf("/api/conversations?limit=%d", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetMessages GET /api/messages/{conversationID}/messages
func (c *apiClient) GetMessages(ctx context.Context, convID string) ([]domain.MessageRecord, error) {
	var out struct {
		Messages []domain.MessageRecord `json:"messages"`
	}
	path := fmt.Sprintf("/api/messages/%s/messages", convID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage POST /api/messages
func (c *apiClient) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error) {
	var out SendMessageResult
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead POST /api/messages/{conversationID}/read
func (c *apiClient) MarkRead(ctx context.Context, convID string) error {
	path := fmt.Sprintf("/api/messages/%s/read", convID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// UpdateStatus PATCH /api/conversations/{conversationID}/status
func (c *apiClient) UpdateStatus(ctx context.Context, convID, status string) error {
	path := fmt.Sprintf("/api/conversations/%s/status", convID)
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
