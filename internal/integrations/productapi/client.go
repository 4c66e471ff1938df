// Package productapi talks to the remote product API.
package productapi

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

	"github.com/odyssey-erp/barcode-console/internal/products"
)

const (
	productsPath     = "/api/products"
	maxErrorBodySize = 64 << 10
)

// Operation names reported to the Observer.
const (
	OpCreate = "create"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

var errEmptyID = errors.New("empty product id")

// Observer receives one notification per API call.
type Observer interface {
	ObserveUpstream(operation, outcome string, elapsed time.Duration)
}

// Client wraps the product API endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// NewClient constructs a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, observer Observer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		observer: observer,
	}
}

type productPayload struct {
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	Description string      `json:"description"`
}

func payloadFrom(in products.Input) productPayload {
	return productPayload{
		Name:        in.Name,
		Price:       json.Number(in.Price.String()),
		Description: in.Description,
	}
}

// Create posts a new product and returns the stored record.
func (c *Client) Create(ctx context.Context, in products.Input) (products.Product, error) {
	var created products.Product
	if err := c.do(ctx, OpCreate, http.MethodPost, productsPath, payloadFrom(in), &created); err != nil {
		return products.Product{}, err
	}
	return created, nil
}

// List fetches the full product collection.
func (c *Client) List(ctx context.Context) ([]products.Product, error) {
	var list []products.Product
	if err := c.do(ctx, OpList, http.MethodGet, productsPath, nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []products.Product{}
	}
	return list, nil
}

// Update replaces the editable fields of product id.
func (c *Client) Update(ctx context.Context, id string, in products.Input) (products.Product, error) {
	if id == "" {
		return products.Product{}, fmt.Errorf("productapi: %s: %w", OpUpdate, errEmptyID)
	}
	var updated products.Product
	if err := c.do(ctx, OpUpdate, http.MethodPut, productPath(id), payloadFrom(in), &updated); err != nil {
		return products.Product{}, err
	}
	return updated, nil
}

// Delete removes product id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("productapi: %s: %w", OpDelete, errEmptyID)
	}
	return c.do(ctx, OpDelete, http.MethodDelete, productPath(id), nil, nil)
}

func productPath(id string) string {
	return productsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	outcome := "transport_error"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(op, outcome, time.Since(start))
		}
	}()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("productapi: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("productapi: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("productapi: %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	outcome = statusClass(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		return fmt.Errorf("productapi: %s: decode response: %w", op, err)
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
