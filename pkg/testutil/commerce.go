// Package testutil provides common testing utilities, most notably an
// in-memory fake of the upstream commerce API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/domain/payment"
	"github.com/counterline/pos/internal/app/domain/receipt"
)

// CommerceServer is an httptest-backed fake of the commerce API. Tests
// seed its maps, point a posapi client at URL(), and inspect what arrived.
type CommerceServer struct {
	mu     sync.Mutex
	server *httptest.Server

	// Received state.
	SubmittedPayments []payment.Request
	DeletedOrders     map[int64][]order.RefundItem
	RefundedPayments  []int64

	// Seeded state.
	PaymentRecords []payment.Record
	UnpaidOrders   map[int64]order.Order
	Receipts       map[int64]receipt.Receipt
	Summaries      []order.Summary
	DailyOrders    map[string][]order.DailyOrder

	// SubmitStatus, when non-zero, makes POST /api/pay fail with that
	// status and SubmitBody as the response.
	SubmitStatus int
	SubmitBody   string
}

// NewCommerceServer starts an empty fake commerce API.
func NewCommerceServer() *CommerceServer {
	cs := &CommerceServer{
		DeletedOrders: make(map[int64][]order.RefundItem),
		UnpaidOrders:  make(map[int64]order.Order),
		Receipts:      make(map[int64]receipt.Receipt),
		DailyOrders:   make(map[string][]order.DailyOrder),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/pay", cs.handlePay)
	mux.HandleFunc("GET /api/pay/all/{storeId}", cs.handlePayments)
	mux.HandleFunc("POST /api/pay/cancel/{paymentId}", cs.handleRefund)
	mux.HandleFunc("GET /api/receipts/{id}", cs.handleReceipt)
	mux.HandleFunc("DELETE /api/orders/{orderId}", cs.handleDeleteOrder)
	mux.HandleFunc("GET /api/orders/unpaid/{placeId}", cs.handleUnpaidOrder)
	mux.HandleFunc("GET /api/reports/all/{storeId}", cs.handleSummaries)
	mux.HandleFunc("GET /api/reports/daily", cs.handleDaily)
	mux.HandleFunc("GET /api/reports", cs.handleSearch)

	cs.server = httptest.NewServer(mux)
	return cs
}

// URL returns the fake server's base URL.
func (cs *CommerceServer) URL() string { return cs.server.URL }

// Close shuts the fake server down.
func (cs *CommerceServer) Close() { cs.server.Close() }

func (cs *CommerceServer) handlePay(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.SubmitStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(cs.SubmitStatus)
		fmt.Fprint(w, cs.SubmitBody)
		return
	}

	var req payment.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	cs.SubmittedPayments = append(cs.SubmittedPayments, req)

	rec := payment.Record{
		PaymentID: int64(len(cs.SubmittedPayments)),
		OrderID:   req.OrderID,
		StoreID:   req.StoreID,
		Amount:    req.TotalAmount,
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (cs *CommerceServer) handlePayments(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	writeJSON(w, http.StatusOK, cs.PaymentRecords)
}

func (cs *CommerceServer) handleRefund(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("paymentId"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	cs.mu.Lock()
	cs.RefundedPayments = append(cs.RefundedPayments, id)
	cs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (cs *CommerceServer) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	cs.mu.Lock()
	rec, ok := cs.Receipts[id]
	cs.mu.Unlock()
	if !ok {
		http.Error(w, "receipt not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (cs *CommerceServer) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	var items []order.RefundItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	cs.mu.Lock()
	cs.DeletedOrders[id] = items
	cs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (cs *CommerceServer) handleUnpaidOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("placeId"), 10, 64)
	cs.mu.Lock()
	ord, ok := cs.UnpaidOrders[id]
	cs.mu.Unlock()
	if !ok {
		http.Error(w, "no unpaid order", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (cs *CommerceServer) handleSummaries(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	writeJSON(w, http.StatusOK, cs.Summaries)
}

func (cs *CommerceServer) handleDaily(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	date := query.Get("date")
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))
	if page < 1 {
		page = 1
	}

	cs.mu.Lock()
	orders := cs.DailyOrders[date]
	cs.mu.Unlock()

	start := (page - 1) * size
	if start >= len(orders) {
		writeJSON(w, http.StatusOK, []order.DailyOrder{})
		return
	}
	end := start + size
	if end > len(orders) {
		end = len(orders)
	}
	writeJSON(w, http.StatusOK, orders[start:end])
}

func (cs *CommerceServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	writeJSON(w, http.StatusOK, cs.Summaries)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
