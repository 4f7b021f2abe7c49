// Package client talks to the MedEase REST API. Every method issues exactly one
// request; there is no retry, caching or request deduplication.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"medease/m/domain"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New constructs a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", body, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", req, &out)
	return out, err
}

func (c *Client) FetchInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	err := c.do(ctx, http.MethodGet, "/inventory", nil, &out)
	return out, err
}

func (c *Client) AddInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	var out domain.InventoryItem
	err := c.do(ctx, http.MethodPost, "/inventory", item, &out)
	return out, err
}

func (c *Client) UpdateInventoryItem(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error) {
	var out domain.InventoryItem
	err := c.do(ctx, http.MethodPut, "/inventory/"+url.PathEscape(id), item, &out)
	return out, err
}

func (c *Client) DeleteInventoryItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inventory/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FetchAppointments(ctx context.Context) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := c.do(ctx, http.MethodGet, "/appointments", nil, &out)
	return out, err
}

func (c *Client) ScheduleAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := c.do(ctx, http.MethodPost, "/appointments", appt, &out)
	return out, err
}

func (c *Client) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, http.MethodPost, "/orders", order, &out)
	return out, err
}

func (c *Client) FetchCustomers(ctx context.Context) ([]domain.Customer, error) {
	var out []domain.Customer
	err := c.do(ctx, http.MethodGet, "/customers", nil, &out)
	return out, err
}

func (c *Client) AddCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	var out domain.Customer
	err := c.do(ctx, http.MethodPost, "/customers", customer, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
