// Package api provides the HTTP client for the remote finance backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

const (
	transactionsPath = "/api/transactions"
	categoriesPath   = "/api/categories"
)

// BaseURLSource supplies the server address. It is consulted on every
// request, so changing it never affects a request already in flight.
type BaseURLSource interface {
	BaseURL(ctx context.Context) string
}

// StaticURL is a fixed BaseURLSource.
type StaticURL string

// BaseURL implements BaseURLSource.
func (u StaticURL) BaseURL(_ context.Context) string {
	return string(u)
}

// Client talks to the finance backend. Each call makes exactly one attempt.
type Client struct {
	urls       BaseURLSource
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client that resolves its base URL from urls.
func NewClient(urls BaseURLSource, opts ...Option) *Client {
	c := &Client{
		urls: urls,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTransactions fetches every transaction.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	if _, err := c.do(ctx, http.MethodGet, transactionsPath, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// CreateTransaction creates a transaction; the server assigns the id and
// resolves the embedded category.
func (c *Client) CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.Transaction, error) {
	var created model.Transaction
	if err := c.doEntity(ctx, http.MethodPost, transactionsPath, req, &created); err != nil {
		return model.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction replaces the transaction with the given id.
func (c *Client) UpdateTransaction(ctx context.Context, id model.ID, req model.TransactionRequest) (model.Transaction, error) {
	var updated model.Transaction
	if err := c.doEntity(ctx, http.MethodPut, resourcePath(transactionsPath, id), req, &updated); err != nil {
		return model.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes the transaction with the given id.
func (c *Client) DeleteTransaction(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, http.MethodDelete, resourcePath(transactionsPath, id), nil, nil)
	return err
}

// ListCategories fetches every category.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if _, err := c.do(ctx, http.MethodGet, categoriesPath, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, draft model.CategoryDraft) (model.Category, error) {
	var created model.Category
	if err := c.doEntity(ctx, http.MethodPost, categoriesPath, draft, &created); err != nil {
		return model.Category{}, err
	}
	return created, nil
}

// UpdateCategory sends the name and type of cat to the category with its id.
func (c *Client) UpdateCategory(ctx context.Context, cat model.Category) (model.Category, error) {
	var updated model.Category
	if err := c.doEntity(ctx, http.MethodPut, resourcePath(categoriesPath, cat.ID), cat.Draft(), &updated); err != nil {
		return model.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes the category with the given id.
func (c *Client) DeleteCategory(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, http.MethodDelete, resourcePath(categoriesPath, id), nil, nil)
	return err
}

// CheckConnection reports whether the category list can be read. It never
// returns an error.
func (c *Client) CheckConnection(ctx context.Context) bool {
	target, err := c.endpoint(ctx, categoriesPath)
	if err != nil {
		c.logger.Warn("Connection check failed", "error", err)
		return false
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.logger.Warn("Connection check failed", "error", err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Connection check failed", "url", target, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return isSuccess(resp.StatusCode)
}

// doEntity is do for calls that must return a body.
func (c *Client) doEntity(ctx context.Context, method, path string, body, out any) error {
	var raw json.RawMessage
	status, err := c.do(ctx, method, path, body, &raw)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return common.NewDecodeError(status, errors.New("empty response body"))
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return common.NewDecodeError(status, err)
	}
	return nil
}

// do performs a single request and returns the response status. A nil out
// discards the response body; a 204 leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	target, err := c.endpoint(ctx, path)
	if err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, target, reader)
	if err != nil {
		return 0, err
	}

	requestID := req.Header.Get("X-Request-ID")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed",
			"method", method,
			"url", target,
			"request_id", requestID,
			"error", err)
		return 0, common.NewTransportError(target, unwrapURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Request completed",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if !isSuccess(resp.StatusCode) {
			return resp.StatusCode, common.NewStatusError(resp.StatusCode, genericStatusMessage(resp.StatusCode))
		}
		return resp.StatusCode, common.NewTransportError(target, err)
	}

	if !isSuccess(resp.StatusCode) {
		return resp.StatusCode, common.NewStatusError(resp.StatusCode, errorMessage(resp.StatusCode, data))
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return resp.StatusCode, nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return resp.StatusCode, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, common.NewDecodeError(resp.StatusCode, err)
	}

	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

// endpoint joins the current base URL with path. One trailing slash is
// dropped from the base, matching how the preference store saves it.
func (c *Client) endpoint(ctx context.Context, path string) (string, error) {
	base := strings.TrimSuffix(strings.TrimSpace(c.urls.BaseURL(ctx)), "/")

	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &common.Error{
			Kind:    common.KindTransport,
			Message: fmt.Sprintf("%v: %q", common.ErrInvalidBaseURL, base),
			Err:     common.ErrInvalidBaseURL,
		}
	}

	return base + path, nil
}

func resourcePath(collection string, id model.ID) string {
	return collection + "/" + url.PathEscape(id.String())
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func genericStatusMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// errorMessage extracts a message from an error body: the JSON "message"
// field, then the "error" field, then the raw text, then a generic string.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Message.(string); ok && s != "" {
			return s
		}
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return genericStatusMessage(status)
}

// unwrapURLError drops the *url.Error wrapper, whose text repeats the
// method and URL already carried by the transport error message.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
