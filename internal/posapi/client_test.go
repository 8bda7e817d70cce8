package posapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/domain/payment"
	"github.com/counterline/pos/internal/app/domain/receipt"
	"github.com/counterline/pos/pkg/testutil"
)

func newTestClient(t *testing.T) (*Client, *testutil.CommerceServer) {
	t.Helper()
	cs := testutil.NewCommerceServer()
	t.Cleanup(cs.Close)
	return New(Config{BaseURL: cs.URL(), Timeout: 5 * time.Second}), cs
}

func TestSubmitPayment(t *testing.T) {
	client, cs := newTestClient(t)

	req := payment.Request{
		OrderID:     301,
		PlaceID:     12,
		StoreID:     7,
		TotalAmount: 15000,
		PayList:     []payment.Tender{payment.CashTender(15000)},
	}
	rec, err := client.SubmitPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if rec.OrderID != 301 || rec.Amount != 15000 {
		t.Errorf("record = %+v, want order 301 amount 15000", rec)
	}

	if len(cs.SubmittedPayments) != 1 {
		t.Fatalf("submitted = %d, want 1", len(cs.SubmittedPayments))
	}
	got := cs.SubmittedPayments[0]
	if len(got.PayList) != 1 || got.PayList[0].PaymentType != payment.TypeCash {
		t.Errorf("payList = %+v, want one CASH tender", got.PayList)
	}
}

func TestSubmitPayment_ConflictMapsToAlreadyPaid(t *testing.T) {
	client, cs := newTestClient(t)
	cs.SubmitStatus = http.StatusConflict
	cs.SubmitBody = `{"error":"ALREADY_PAYMENT","message":"order already paid"}`

	_, err := client.SubmitPayment(context.Background(), payment.Request{OrderID: 301})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if re.Status != http.StatusConflict || re.Message != "order already paid" {
		t.Errorf("remote error = %+v", re)
	}
}

func TestSubmitPayment_OtherFailureIsNotAlreadyPaid(t *testing.T) {
	client, cs := newTestClient(t)
	cs.SubmitStatus = http.StatusInternalServerError
	cs.SubmitBody = `{"error":"INTERNAL","message":"boom"}`

	_, err := client.SubmitPayment(context.Background(), payment.Request{OrderID: 301})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("err = %v, must not map to ErrAlreadyPaid", err)
	}
}

func TestLatestPaymentID_IgnoresArrayOrder(t *testing.T) {
	client, cs := newTestClient(t)
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	// Newest payment deliberately first in the slice.
	cs.PaymentRecords = []payment.Record{
		{PaymentID: 55, CreatedAt: base.Add(2 * time.Hour)},
		{PaymentID: 99, CreatedAt: base},
		{PaymentID: 12, CreatedAt: base.Add(time.Hour)},
	}

	id, err := client.LatestPaymentID(context.Background(), 7)
	if err != nil {
		t.Fatalf("LatestPaymentID: %v", err)
	}
	if id != 55 {
		t.Errorf("id = %d, want 55", id)
	}
}

func TestLatestPaymentID_TiesBreakOnID(t *testing.T) {
	client, cs := newTestClient(t)
	ts := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	cs.PaymentRecords = []payment.Record{
		{PaymentID: 3, CreatedAt: ts},
		{PaymentID: 9, CreatedAt: ts},
		{PaymentID: 5, CreatedAt: ts},
	}

	id, err := client.LatestPaymentID(context.Background(), 7)
	if err != nil {
		t.Fatalf("LatestPaymentID: %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want 9", id)
	}
}

func TestLatestPaymentID_EmptyStore(t *testing.T) {
	client, _ := newTestClient(t)
	if _, err := client.LatestPaymentID(context.Background(), 7); err == nil {
		t.Fatal("expected an error for a store with no payments")
	}
}

func TestListPayments_ToleratesSnakeCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"payment_id": 10, "order_id": 301, "store_id": 7, "total_amount": 5000, "created_at": "2026-08-28T12:00:00Z"},
			{"paymentId": 11, "orderId": 302, "storeId": 7, "totalAmount": 8000, "createdAt": "2026-08-28T13:00:00Z"}
		]`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	records, err := client.ListPayments(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].PaymentID != 10 || records[0].Amount != 5000 {
		t.Errorf("snake_case row = %+v", records[0])
	}
	if records[1].PaymentID != 11 || records[1].OrderID != 302 {
		t.Errorf("camelCase row = %+v", records[1])
	}
	want := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if !records[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", records[0].CreatedAt, want)
	}
}

func TestUnpaidOrderByPlace(t *testing.T) {
	client, cs := newTestClient(t)
	cs.UnpaidOrders[12] = order.Order{OrderID: 301, PlaceID: 12, StoreID: 7}

	ord, err := client.UnpaidOrderByPlace(context.Background(), 12)
	if err != nil {
		t.Fatalf("UnpaidOrderByPlace: %v", err)
	}
	if ord.OrderID != 301 {
		t.Errorf("order = %+v, want id 301", ord)
	}

	_, err = client.UnpaidOrderByPlace(context.Background(), 99)
	if !errors.Is(err, ErrNoUnpaidOrder) {
		t.Errorf("err = %v, want ErrNoUnpaidOrder", err)
	}
}

func TestUnpaidOrderByPlace_ZeroIDMeansNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	_, err := client.UnpaidOrderByPlace(context.Background(), 12)
	if !errors.Is(err, ErrNoUnpaidOrder) {
		t.Errorf("err = %v, want ErrNoUnpaidOrder", err)
	}
}

func TestDeleteOrder(t *testing.T) {
	client, cs := newTestClient(t)
	items := []order.RefundItem{
		{MenuID: 1, Quantity: 2, OrderPrice: 5000},
		{MenuID: 4, Quantity: 1, OrderPrice: 6000},
	}

	if err := client.DeleteOrder(context.Background(), 301, items); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}

	got, ok := cs.DeletedOrders[301]
	if !ok {
		t.Fatal("deletion did not reach the upstream")
	}
	if len(got) != 2 || got[0] != items[0] || got[1] != items[1] {
		t.Errorf("refund items = %+v, want %+v", got, items)
	}
}

func TestRefundPayment(t *testing.T) {
	client, cs := newTestClient(t)
	if err := client.RefundPayment(context.Background(), 88); err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if len(cs.RefundedPayments) != 1 || cs.RefundedPayments[0] != 88 {
		t.Errorf("refunded = %v, want [88]", cs.RefundedPayments)
	}
}

func TestReceipt(t *testing.T) {
	client, cs := newTestClient(t)
	cs.Receipts[88] = receipt.Receipt{StoreName: "Counterline Cafe", TotalAmount: 15000}

	rec, err := client.Receipt(context.Background(), 88)
	if err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	if rec.StoreName != "Counterline Cafe" {
		t.Errorf("receipt = %+v", rec)
	}

	if _, err := client.Receipt(context.Background(), 99); err == nil {
		t.Error("expected an error for a missing receipt")
	}
}

func TestRemoteError_PlainBody(t *testing.T) {
	re := remoteError(http.StatusBadGateway, []byte("upstream exploded"))
	if re.Status != http.StatusBadGateway || re.Code != "" {
		t.Errorf("remote error = %+v", re)
	}
	if re.Message != "upstream exploded" {
		t.Errorf("message = %q", re.Message)
	}
}
