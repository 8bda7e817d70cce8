// Package posapi is the typed client for the upstream commerce API that
// backs the POS terminal: orders, payments, receipts and reports.
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
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/domain/payment"
	"github.com/counterline/pos/internal/app/domain/receipt"
)

const maxResponseBytes = 8 << 20

// Client talks to the upstream commerce API with JSON bodies.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config configures the upstream client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates an upstream API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// do executes a request against the upstream API and decodes the response
// into target when it is non-nil. Non-2xx responses become *RemoteError with
// the remote error code extracted when the body carries one.
func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return remoteError(resp.StatusCode, raw)
	}

	if target == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// remoteError extracts {"error": code, "message": msg} when present.
func remoteError(status int, body []byte) *RemoteError {
	re := &RemoteError{Status: status, Message: strings.TrimSpace(string(body))}
	if gjson.ValidBytes(body) {
		if code := gjson.GetBytes(body, "error"); code.Exists() {
			re.Code = code.String()
		}
		if msg := gjson.GetBytes(body, "message"); msg.Exists() {
			re.Message = msg.String()
		}
	}
	return re
}

// SubmitPayment posts a payment submission for an order.
func (c *Client) SubmitPayment(ctx context.Context, req payment.Request) (payment.Record, error) {
	var rec payment.Record
	if err := c.do(ctx, http.MethodPost, "/api/pay", req, &rec); err != nil {
		return payment.Record{}, err
	}
	return rec, nil
}

// ListPayments returns all payment records for a store. The upstream API is
// inconsistent about field spellings (payment_id vs paymentId, created_at vs
// createdAt), so rows are extracted tolerantly rather than unmarshalled.
func (c *Client) ListPayments(ctx context.Context, storeID int64) ([]payment.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/pay/all/%d", storeID), nil, &raw); err != nil {
		return nil, err
	}

	var records []payment.Record
	for _, row := range gjson.ParseBytes(raw).Array() {
		rec := payment.Record{
			PaymentID: firstInt(row, "paymentId", "payment_id"),
			OrderID:   firstInt(row, "orderId", "order_id"),
			StoreID:   firstInt(row, "storeId", "store_id"),
			Amount:    firstInt(row, "totalAmount", "total_amount"),
		}
		if ts := firstString(row, "createdAt", "created_at"); ts != "" {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				rec.CreatedAt = parsed
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// LatestPaymentID returns the id of the store's newest payment, ordered by
// creation time, then id. Response array order is not trusted.
func (c *Client) LatestPaymentID(ctx context.Context, storeID int64) (int64, error) {
	records, err := c.ListPayments(ctx, storeID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no payments recorded for store %d", storeID)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].PaymentID < records[j].PaymentID
	})
	return records[len(records)-1].PaymentID, nil
}

// Receipt fetches the receipt for a payment or order id.
func (c *Client) Receipt(ctx context.Context, id int64) (receipt.Receipt, error) {
	var rec receipt.Receipt
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/receipts/%d", id), nil, &rec); err != nil {
		return receipt.Receipt{}, err
	}
	return rec, nil
}

// RefundPayment cancels a prior payment.
func (c *Client) RefundPayment(ctx context.Context, paymentID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/pay/cancel/%d", paymentID), nil, nil)
}

// DeleteOrder removes an order and restocks the refunded items. Used as the
// compensating action when a newly created order is cancelled before payment.
func (c *Client) DeleteOrder(ctx context.Context, orderID int64, items []order.RefundItem) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), items, nil)
}

// UnpaidOrderByPlace returns the open order for a table, or ErrNoUnpaidOrder
// when the place has none (for example because it was just settled).
func (c *Client) UnpaidOrderByPlace(ctx context.Context, placeID int64) (order.Order, error) {
	var ord order.Order
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/unpaid/%d", placeID), nil, &ord)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.Status == http.StatusNotFound {
			return order.Order{}, ErrNoUnpaidOrder
		}
		return order.Order{}, err
	}
	if ord.OrderID == 0 {
		return order.Order{}, ErrNoUnpaidOrder
	}
	return ord, nil
}

// OrderSummaries returns the per-date report rows for a store.
func (c *Client) OrderSummaries(ctx context.Context, storeID int64, status string) ([]order.Summary, error) {
	path := fmt.Sprintf("/api/reports/all/%d?status=%s", storeID, url.QueryEscape(status))
	var summaries []order.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// DailyOrders returns one page of a store's orders for a single date.
func (c *Client) DailyOrders(ctx context.Context, storeID int64, date string, page, size int, status string) ([]order.DailyOrder, error) {
	query := url.Values{}
	query.Set("storeId", fmt.Sprintf("%d", storeID))
	query.Set("date", date)
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("size", fmt.Sprintf("%d", size))
	query.Set("status", status)

	var orders []order.DailyOrder
	if err := c.do(ctx, http.MethodGet, "/api/reports/daily?"+query.Encode(), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SearchSummaries returns the report rows between two dates. endDate is sent
// as given; callers decide inclusivity.
func (c *Client) SearchSummaries(ctx context.Context, storeID int64, startDate, endDate, status string) ([]order.Summary, error) {
	query := url.Values{}
	query.Set("storeId", fmt.Sprintf("%d", storeID))
	query.Set("startDate", startDate)
	query.Set("endDate", endDate)
	query.Set("status", status)

	var summaries []order.Summary
	if err := c.do(ctx, http.MethodGet, "/api/reports?"+query.Encode(), nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func firstInt(row gjson.Result, keys ...string) int64 {
	for _, key := range keys {
		if v := row.Get(key); v.Exists() {
			return v.Int()
		}
	}
	return 0
}

func firstString(row gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := row.Get(key); v.Exists() {
			return v.String()
		}
	}
	return ""
}
