package posapi

import (
	"errors"
	"fmt"
)

// Remote error codes the upstream commerce API is known to return.
const codeAlreadyPaid = "ALREADY_PAYMENT"

// ErrAlreadyPaid reports that the order was settled by another terminal
// before this submission landed.
var ErrAlreadyPaid = errors.New("order already paid")

// ErrNoUnpaidOrder reports that the unpaid-order lookup for a place came
// back empty.
var ErrNoUnpaidOrder = errors.New("no unpaid order for place")

// RemoteError is a non-2xx response from the upstream API.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream request failed with status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("upstream request failed with status %d: %s", e.Status, e.Message)
}

// Is maps the known conflict code onto ErrAlreadyPaid so callers can use
// errors.Is without inspecting codes themselves.
func (e *RemoteError) Is(target error) bool {
	return target == ErrAlreadyPaid && e.Code == codeAlreadyPaid
}
