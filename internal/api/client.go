package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"mittrack/internal/model"
)

// Client talks to the mittracking remote service. It is safe for concurrent
// use; the bearer token is attached to every request while set.
type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken attaches a bearer token to subsequent requests. The list
// endpoints do not require one; it is sent opportunistically when present.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ClearToken() {
	c.SetToken("")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

// Login exchanges the credential pair for a user record and bearer token.
// A non-2xx status yields an HTTPError carrying the server message; a 2xx
// payload without success, user and token yields a SemanticError.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, "", fmt.Errorf("marshal login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/mittracking/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var payload loginResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPError{Status: resp.StatusCode, Message: payload.Message}
	}
	if decodeErr != nil {
		return nil, "", &DecodeError{Err: decodeErr}
	}
	if !payload.Success || payload.User == nil || payload.Token == "" {
		msg := payload.Message
		if msg == "" {
			msg = "login failed"
		}
		return nil, "", &SemanticError{Message: msg}
	}

	return payload.User, payload.Token, nil
}

// ListOrders fetches the full order collection. The endpoint answers with
// either a bare array or an {orders: [...]} envelope; both are accepted.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	body, err := c.get(ctx, "/orders/")
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := json.Unmarshal(body, &orders); err == nil {
		return orders, nil
	}

	var envelope struct {
		Orders []model.Order `json:"orders"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return envelope.Orders, nil
}

// ListDocuments fetches the document collection, bounded by limit.
func (c *Client) ListDocuments(ctx context.Context, limit int) ([]model.OrderDocument, error) {
	body, err := c.get(ctx, fmt.Sprintf("/files/admin/all-documents?limit=%d", limit))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Documents []model.OrderDocument `json:"documents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return envelope.Documents, nil
}

// GetOrder fetches a single order's full record.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	body, err := c.get(ctx, "/orders/"+orderID)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Order *model.Order `json:"order"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if envelope.Order == nil {
		return nil, &SemanticError{Message: "order not found in response"}
	}
	return envelope.Order, nil
}

// GetOrderHistory fetches the audit trail of an order. limit <= 0 requests
// the full trail; otherwise the server truncates to the most recent entries
// and reports total_commits vs showing.
func (c *Client) GetOrderHistory(ctx context.Context, orderID string, limit int) (*model.OrderVersionHistory, error) {
	path := "/orders/" + orderID + "/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var history model.OrderVersionHistory
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &history, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Message: serverMessage(body)}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("api request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// serverMessage pulls the message field out of an error body, if any.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
