// Package posapi wraps the retail backend's REST endpoints with centralized
// auth, idempotency, and error mapping.
package posapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oaramirez/grocerpos/pkg/config"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
)

const errorBodyReadLimit int64 = 4096

var (
	errBaseURLRequired = errors.New("pos api base url is required")
	errLoggerRequired  = errors.New("pos api logger is required")
)

// TokenSource supplies the bearer credential for each request. The credential
// is owned by the external session collaborator, not by this client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource serves a fixed credential, typically from configuration.
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client talks to the retail backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the backend client from configuration.
func NewClient(cfg config.APIConfig, tokens TokenSource, logg *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	if tokens == nil {
		tokens = StaticTokenSource(cfg.Token)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		tokens:     tokens,
		logger:     logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByBarcode looks up a single product; a miss maps to NOT_FOUND.
func (c *Client) GetProductByBarcode(ctx context.Context, code string) (*Product, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	var product Product
	path := "/products/by-barcode/" + url.PathEscape(trimmed)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCustomers fetches the customer list for optional attachment.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.do(ctx, http.MethodGet, "/customers", nil, nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// CreateTransaction submits a sale. Each attempt carries a fresh
// Idempotency-Key so a retried submission cannot double-commit upstream.
func (c *Client) CreateTransaction(ctx context.Context, payload PendingTransaction) (*TransactionCreated, error) {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	var created TransactionCreated
	if err := c.do(ctx, http.MethodPost, "/transactions/create", payload, headers, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetReceipt fetches the confirmed receipt for a committed sale.
func (c *Client) GetReceipt(ctx context.Context, transactionID int64) (*Receipt, error) {
	var receipt Receipt
	path := fmt.Sprintf("/transactions/%d/receipt", transactionID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "obtain credential")
	}
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer credential")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	logCtx := c.logger.WithFields(ctx, map[string]any{"method": method, "path": path})
	c.logger.Debug(logCtx, "posapi.request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(logCtx, "posapi.transport_error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapErrorResponse(resp, method, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) mapErrorResponse(resp *http.Response, method, path string) error {
	var parsed errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	_ = json.Unmarshal(raw, &parsed)

	message := strings.TrimSpace(parsed.Detail)
	if message == "" {
		message = fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"status": resp.StatusCode})
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, message).WithDetails(map[string]any{"status": resp.StatusCode})
	}
}
