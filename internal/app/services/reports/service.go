// Package reports implements the order-history screen's flows: per-date
// sales summaries, paginated daily order listings, ranged searches, receipt
// lookup and refunds.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/domain/receipt"
	"github.com/counterline/pos/pkg/logger"
)

// Status filters report listings by settlement outcome.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancelled"
)

// DefaultPageSize is the daily listing page size the terminal scrolls by.
const DefaultPageSize = 10

// Upstream is the slice of the commerce API the reporting flows need.
// *posapi.Client satisfies it.
type Upstream interface {
	OrderSummaries(ctx context.Context, storeID int64, status string) ([]order.Summary, error)
	DailyOrders(ctx context.Context, storeID int64, date string, page, size int, status string) ([]order.DailyOrder, error)
	SearchSummaries(ctx context.Context, storeID int64, startDate, endDate, status string) ([]order.Summary, error)
	Receipt(ctx context.Context, id int64) (receipt.Receipt, error)
	RefundPayment(ctx context.Context, paymentID int64) error
}

// Service exposes report queries for one store at a time.
type Service struct {
	api Upstream
	log *logger.Logger
}

// New constructs a reports service.
func New(api Upstream, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{api: api, log: log}
}

// Summaries returns the store's per-date report rows, newest date first.
func (s *Service) Summaries(ctx context.Context, storeID int64, status Status) ([]order.Summary, error) {
	if storeID == 0 {
		return nil, fmt.Errorf("store id is required")
	}

	summaries, err := s.api.OrderSummaries(ctx, storeID, string(status))
	if err != nil {
		return nil, fmt.Errorf("fetch order summaries: %w", err)
	}

	sortSummariesDesc(summaries)
	return summaries, nil
}

// Page is one page of a store's orders for a single date.
type Page struct {
	Date    string             `json:"date"`
	Orders  []order.DailyOrder `json:"orders"`
	HasMore bool               `json:"hasMore"`
}

// Daily returns one page of orders for a date. A full page signals that
// more pages may follow.
func (s *Service) Daily(ctx context.Context, storeID int64, date string, page, size int, status Status) (Page, error) {
	if storeID == 0 {
		return Page{}, fmt.Errorf("store id is required")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	orders, err := s.api.DailyOrders(ctx, storeID, date, page, size, string(status))
	if err != nil {
		return Page{}, fmt.Errorf("fetch daily orders: %w", err)
	}

	return Page{
		Date:    date,
		Orders:  dedupeOrders(orders),
		HasMore: len(orders) == size,
	}, nil
}

// Search returns report rows between two dates, newest first. The end date
// is inclusive; the upstream API treats its endDate as exclusive, so one day
// is added before the call.
func (s *Service) Search(ctx context.Context, storeID int64, startDate, endDate time.Time, status Status) ([]order.Summary, error) {
	if storeID == 0 {
		return nil, fmt.Errorf("store id is required")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, fmt.Errorf("start and end dates are required")
	}

	start := startDate.Format("2006-01-02")
	end := endDate.AddDate(0, 0, 1).Format("2006-01-02")

	summaries, err := s.api.SearchSummaries(ctx, storeID, start, end, string(status))
	if err != nil {
		return nil, fmt.Errorf("search order summaries: %w", err)
	}

	sortSummariesDesc(summaries)
	return summaries, nil
}

// ReceiptForOrder fetches the receipt of a settled order and its printable
// rendering.
func (s *Service) ReceiptForOrder(ctx context.Context, orderID int64) (receipt.Receipt, string, error) {
	if orderID == 0 {
		return receipt.Receipt{}, "", fmt.Errorf("order id is required")
	}

	rec, err := s.api.Receipt(ctx, orderID)
	if err != nil {
		return receipt.Receipt{}, "", fmt.Errorf("fetch receipt: %w", err)
	}
	return rec, receipt.Render(rec), nil
}

// Refund cancels a prior payment.
func (s *Service) Refund(ctx context.Context, paymentID int64) error {
	if paymentID == 0 {
		return fmt.Errorf("payment id is required")
	}

	if err := s.api.RefundPayment(ctx, paymentID); err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}

	s.log.WithField("payment_id", paymentID).Info("payment refunded")
	return nil
}

func sortSummariesDesc(summaries []order.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Date > summaries[j].Date
	})
}

// dedupeOrders drops repeated order ids while keeping first-seen order.
// Overlapping pages from the upstream can repeat rows.
func dedupeOrders(orders []order.DailyOrder) []order.DailyOrder {
	seen := make(map[int64]bool, len(orders))
	result := orders[:0]
	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		seen[o.OrderID] = true
		result = append(result, o)
	}
	return result
}
