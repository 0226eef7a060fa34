// Package api is the REST client for the POS backend. It owns the wire
// models, attaches the session token, and normalizes server rejections into
// *APIError values the flows can branch on. It performs no business
// validation of its own; guards live in the flow packages so they run
// before any network call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gapjyk-pos/waiter/internal/session"
)

// APIError is a non-2xx response from the backend. Business-rule rejections
// (409s and friends) arrive here with the server's message intact; the
// client surfaces them verbatim and never guesses at a corrective mutation.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client talks to the backend. Safe to share; it holds no per-request state.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

// New creates a client for the given base URL.
func New(baseURL string, sess *session.Session, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
}

// CreateOrder submits a full draft as one order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// GetOrder fetches one order with its items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// UpdateOrder patches order-level fields (table change, notes, cancellation).
func (c *Client) UpdateOrder(ctx context.Context, orderID string, req UpdateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+orderID, req, &order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &order, nil
}

// BatchUpdateItemStatus moves a batch of items to a target status. The call
// is all-or-nothing as seen by the client: on error nothing moved.
func (c *Client) BatchUpdateItemStatus(ctx context.Context, orderID string, req BatchItemStatusRequest) error {
	if err := c.do(ctx, http.MethodPatch, "/orders/"+orderID+"/items/status", req, nil); err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	return nil
}

// CalculateBill asks the server for a non-committing bill preview.
func (c *Client) CalculateBill(ctx context.Context, orderID string) (*BillCalculation, error) {
	var calc BillCalculation
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID+"/calculate", nil, &calc); err != nil {
		return nil, fmt.Errorf("calculate bill: %w", err)
	}
	return &calc, nil
}

// CreateBill persists a bill from the given item snapshot.
func (c *Client) CreateBill(ctx context.Context, req CreateBillRequest) (*Bill, error) {
	var bill Bill
	if err := c.do(ctx, http.MethodPost, "/bills", req, &bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return &bill, nil
}

// GetBill fetches the authoritative bill, payments included.
func (c *Client) GetBill(ctx context.Context, billID string) (*Bill, error) {
	var bill Bill
	if err := c.do(ctx, http.MethodGet, "/bills/"+billID, nil, &bill); err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return &bill, nil
}

// UpdateBillDiscounts atomically replaces the bill's discount set. The
// server computes the resulting discount amount; the client never re-derives
// it once a bill exists.
func (c *Client) UpdateBillDiscounts(ctx context.Context, billID string, req UpdateBillDiscountsRequest) (*Bill, error) {
	var bill Bill
	if err := c.do(ctx, http.MethodPut, "/bills/"+billID+"/discounts", req, &bill); err != nil {
		return nil, fmt.Errorf("update bill discounts: %w", err)
	}
	return &bill, nil
}

// CreatePayment appends a payment to the bill's ledger.
func (c *Client) CreatePayment(ctx context.Context, billID string, req CreatePaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/bills/"+billID+"/payments", req, &payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &payment, nil
}

// ListPayments returns the bill's payment ledger.
func (c *Client) ListPayments(ctx context.Context, billID string) ([]Payment, error) {
	var payments []Payment
	if err := c.do(ctx, http.MethodGet, "/bills/"+billID+"/payments", nil, &payments); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// errorBody matches the backend's {"error": "..."} envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.session != nil {
		if err := c.session.Valid(); err != nil {
			return err
		}
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
