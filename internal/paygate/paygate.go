// Package paygate abstracts the external card payment gateway.
package paygate

import (
	"context"
	"errors"
	"time"
)

// ErrDeclined reports that the gateway refused the authorization.
var ErrDeclined = errors.New("card authorization declined")

// Authorization is a successful gateway response.
type Authorization struct {
	Amount     int64
	ApprovedAt time.Time
}

// Gateway authorizes card payments. Implementations must honor ctx
// cancellation while waiting on the processor.
type Gateway interface {
	Authorize(ctx context.Context, amount int64) (Authorization, error)
}

// Mock simulates a card processor with a fixed authorization latency. With
// Decline unset every authorization succeeds, which matches the terminal's
// demo behavior; tests flip Decline to exercise the refusal path.
type Mock struct {
	Latency time.Duration
	Decline bool
}

// NewMock returns a mock gateway with a one second authorization latency.
func NewMock() *Mock {
	return &Mock{Latency: time.Second}
}

// Authorize waits out the configured latency and approves the amount.
func (m *Mock) Authorize(ctx context.Context, amount int64) (Authorization, error) {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Authorization{}, ctx.Err()
		case <-timer.C:
		}
	}

	if m.Decline {
		return Authorization{}, ErrDeclined
	}
	return Authorization{Amount: amount, ApprovedAt: time.Now().UTC()}, nil
}
