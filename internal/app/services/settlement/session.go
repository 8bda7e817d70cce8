// Package settlement implements the payment-collection flow of the POS
// terminal: tender accumulation, change computation, finalization against
// the upstream commerce API, and cancellation with compensating rollback.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/domain/payment"
	"github.com/counterline/pos/internal/app/domain/receipt"
	"github.com/counterline/pos/internal/paygate"
	"github.com/counterline/pos/internal/posapi"
	"github.com/counterline/pos/pkg/logger"
)

// State is the lifecycle phase of a settlement session.
type State string

const (
	// StateCollecting accepts tender mutations.
	StateCollecting State = "collecting"
	// StateFinalizing has a submission in flight; mutations are rejected.
	StateFinalizing State = "finalizing"
	// StateReceiptPrompt waits for the receipt yes/no choice.
	StateReceiptPrompt State = "receipt_prompt"
	// StateClosed is terminal; the session is done and may be discarded.
	StateClosed State = "closed"
)

// ErrFinalizeInFlight reports a second finalize attempt while one is
// already outstanding for the session.
var ErrFinalizeInFlight = errors.New("finalize already in flight")

// ErrWrongState reports an operation invoked outside its lifecycle phase.
var ErrWrongState = errors.New("operation not valid in current session state")

// InsufficientError reports a finalize attempt short of the cart total.
type InsufficientError struct {
	Total int64
	Paid  int64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient payment: total %d, paid %d, short %d", e.Total, e.Paid, e.Total-e.Paid)
}

// Upstream is the slice of the commerce API the settlement flow needs.
// *posapi.Client satisfies it.
type Upstream interface {
	SubmitPayment(ctx context.Context, req payment.Request) (payment.Record, error)
	LatestPaymentID(ctx context.Context, storeID int64) (int64, error)
	Receipt(ctx context.Context, id int64) (receipt.Receipt, error)
	DeleteOrder(ctx context.Context, orderID int64, items []order.RefundItem) error
	UnpaidOrderByPlace(ctx context.Context, placeID int64) (order.Order, error)
}

// Session tracks one payment-collection flow from cart to settled order.
// All methods are safe for concurrent use; network operations release the
// lock while in flight.
type Session struct {
	mu sync.Mutex

	cart         order.Cart
	initialTotal int64
	cash         int64
	split        int64
	customEntry  bool
	splitVisible bool
	state        State
	paymentID    int64

	api     Upstream
	gateway paygate.Gateway
	log     *logger.Logger
}

// NewSession opens a settlement session for a cart. The cart total is fixed
// at this point and never recomputed.
func NewSession(cart order.Cart, api Upstream, gw paygate.Gateway, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewDefault("settlement")
	}
	return &Session{
		cart:         cart,
		initialTotal: cart.Total(),
		state:        StateCollecting,
		api:          api,
		gateway:      gw,
		log:          log,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InitialTotal returns the fixed cart total.
func (s *Session) InitialTotal() int64 {
	return s.initialTotal
}

// CashTendered returns the accumulated cash amount.
func (s *Session) CashTendered() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// SplitTendered returns the split or card amount.
func (s *Session) SplitTendered() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.split
}

// RemainingBalance returns how much is still owed, floored at zero.
func (s *Session) RemainingBalance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(0, s.initialTotal-s.cash-s.split)
}

// ChangeDue returns the overpayment to hand back, floored at zero.
func (s *Session) ChangeDue() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(0, s.cash+s.split-s.initialTotal)
}

// AddCash adds a preset cash amount to the tendered total.
func (s *Session) AddCash(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("cash amount must be non-negative, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.cash += amount
	return nil
}

// SetCash replaces the cash amount with a custom entry. Input that does not
// parse as an integer counts as zero; the operator sees the field reset
// rather than an error.
func (s *Session) SetCash(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.cash = parseAmount(input)
	s.customEntry = true
	return nil
}

// ResetCash zeroes the cash amount and leaves custom-entry mode.
func (s *Session) ResetCash() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.cash = 0
	s.customEntry = false
	return nil
}

// ToggleSplit shows or hides the secondary tender input. Hiding it resets
// the split amount.
func (s *Session) ToggleSplit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.splitVisible = !s.splitVisible
	if !s.splitVisible {
		s.split = 0
	}
	return nil
}

// SetSplit replaces the split amount with a manual entry. Non-numeric input
// counts as zero.
func (s *Session) SetSplit(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.split = parseAmount(input)
	return nil
}

// ConfirmCard runs a card authorization for the full cart total through the
// payment gateway. On approval the split tender covers the whole total and
// the remaining balance drops to zero.
func (s *Session) ConfirmCard(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateCollecting {
		s.mu.Unlock()
		return ErrWrongState
	}
	total := s.initialTotal
	s.mu.Unlock()

	auth, err := s.gateway.Authorize(ctx, total)
	if err != nil {
		return fmt.Errorf("card authorization: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return ErrWrongState
	}
	s.split = auth.Amount
	s.log.WithField("order_id", s.cart.OrderID).
		WithField("amount", auth.Amount).
		Info("card authorization approved")
	return nil
}

// Result summarizes a successful finalization.
type Result struct {
	PaymentID int64
	ChangeDue int64
}

// Finalize validates the tendered amounts, re-checks that the order is still
// open, submits the payment upstream, and resolves the newest payment id for
// the receipt prompt. A shortfall or a zero total leaves the session
// untouched; exactly one finalize may be in flight at a time.
func (s *Session) Finalize(ctx context.Context) (Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateCollecting:
	case StateFinalizing:
		s.mu.Unlock()
		return Result{}, ErrFinalizeInFlight
	default:
		s.mu.Unlock()
		return Result{}, ErrWrongState
	}

	paid := s.cash + s.split
	if paid < s.initialTotal || s.initialTotal == 0 {
		total := s.initialTotal
		s.mu.Unlock()
		return Result{}, &InsufficientError{Total: total, Paid: paid}
	}

	s.state = StateFinalizing
	cart := s.cart
	cash := s.cash
	split := s.split
	total := s.initialTotal
	s.mu.Unlock()

	// Another terminal may have settled the table while tenders were being
	// collected here.
	if cart.OrderID != 0 && cart.PlaceID != 0 {
		current, err := s.api.UnpaidOrderByPlace(ctx, cart.PlaceID)
		if errors.Is(err, posapi.ErrNoUnpaidOrder) || (err == nil && current.OrderID != cart.OrderID) {
			s.close()
			return Result{}, posapi.ErrAlreadyPaid
		}
		if err != nil {
			s.reopen()
			return Result{}, fmt.Errorf("verify unpaid order: %w", err)
		}
	}

	var payList []payment.Tender
	if cash > 0 {
		payList = append(payList, payment.CashTender(cash))
	}
	if split > 0 {
		payList = append(payList, payment.CardTender(split))
	}

	req := payment.Request{
		OrderID:        cart.OrderID,
		PlaceID:        cart.PlaceID,
		StoreID:        cart.StoreID,
		TotalAmount:    total,
		DiscountAmount: 0,
		PayList:        payList,
	}

	if _, err := s.api.SubmitPayment(ctx, req); err != nil {
		if errors.Is(err, posapi.ErrAlreadyPaid) {
			s.close()
			return Result{}, posapi.ErrAlreadyPaid
		}
		s.reopen()
		return Result{}, fmt.Errorf("submit payment: %w", err)
	}

	// The submission succeeded; a failed id lookup only costs the receipt.
	paymentID, err := s.api.LatestPaymentID(ctx, cart.StoreID)
	if err != nil {
		s.log.WithError(err).WithField("store_id", cart.StoreID).
			Warn("latest payment lookup failed, receipt unavailable")
		paymentID = 0
	}

	s.mu.Lock()
	s.state = StateReceiptPrompt
	s.paymentID = paymentID
	s.mu.Unlock()

	s.log.WithFields(map[string]interface{}{
		"order_id":   cart.OrderID,
		"store_id":   cart.StoreID,
		"total":      total,
		"payment_id": paymentID,
	}).Info("payment settled")

	return Result{PaymentID: paymentID, ChangeDue: max(0, paid-total)}, nil
}

// PrintReceipt fetches and renders the receipt for the settled payment, then
// closes the session. The session closes even when the fetch fails; the
// settlement itself is already complete.
func (s *Session) PrintReceipt(ctx context.Context) (receipt.Receipt, string, error) {
	s.mu.Lock()
	if s.state != StateReceiptPrompt {
		s.mu.Unlock()
		return receipt.Receipt{}, "", ErrWrongState
	}
	paymentID := s.paymentID
	s.mu.Unlock()

	defer s.close()

	if paymentID == 0 {
		return receipt.Receipt{}, "", fmt.Errorf("no payment id recorded for receipt")
	}

	rec, err := s.api.Receipt(ctx, paymentID)
	if err != nil {
		return receipt.Receipt{}, "", fmt.Errorf("fetch receipt: %w", err)
	}
	return rec, receipt.Render(rec), nil
}

// SkipReceipt declines the receipt and closes the session.
func (s *Session) SkipReceipt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReceiptPrompt {
		return ErrWrongState
	}
	s.state = StateClosed
	return nil
}

// Cancel abandons the session. Carts backed by a freshly created order get a
// compensating deletion upstream, one refund entry per line item; a failed
// compensation is logged and never blocks the cancel.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateCollecting {
		s.mu.Unlock()
		return ErrWrongState
	}
	cart := s.cart
	s.mu.Unlock()

	if cart.NewOrder && cart.OrderID != 0 {
		if err := s.api.DeleteOrder(ctx, cart.OrderID, cart.RefundItems()); err != nil {
			s.log.WithError(err).WithField("order_id", cart.OrderID).
				Error("compensating order deletion failed")
		} else {
			s.log.WithField("order_id", cart.OrderID).Info("new order rolled back")
		}
	}

	s.close()
	return nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.cash = 0
	s.split = 0
	s.customEntry = false
	s.splitVisible = false
}

func (s *Session) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinalizing {
		s.state = StateCollecting
	}
}

// parseAmount interprets operator input as a whole amount. Bad input is
// zero, never an error.
func parseAmount(input string) int64 {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
