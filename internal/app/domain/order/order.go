// Package order defines the order-side domain types shared by the
// settlement and reporting services.
package order

import "time"

// LineItem is one menu entry on a cart, priced per unit.
type LineItem struct {
	MenuID   int64 `json:"menuId"`
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Subtotal returns price times quantity for the line.
func (li LineItem) Subtotal() int64 {
	return li.Price * li.Quantity
}

// Cart is the set of line items a payment session settles against. NewOrder
// marks carts backed by an order created for this session; cancelling such a
// cart must roll the order back upstream.
type Cart struct {
	OrderID  int64      `json:"orderId"`
	PlaceID  int64      `json:"placeId"`
	StoreID  int64      `json:"storeId"`
	NewOrder bool       `json:"newOrder"`
	Items    []LineItem `json:"items"`
}

// Total returns the fixed cart total: the sum of line subtotals.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// RefundItem is one compensating entry sent with an order deletion.
type RefundItem struct {
	MenuID     int64 `json:"menuId"`
	Quantity   int64 `json:"quantity"`
	OrderPrice int64 `json:"orderPrice"`
}

// RefundItems builds the compensation list for a cart, one entry per line
// item with the full line subtotal.
func (c Cart) RefundItems() []RefundItem {
	items := make([]RefundItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, RefundItem{
			MenuID:     item.MenuID,
			Quantity:   item.Quantity,
			OrderPrice: item.Subtotal(),
		})
	}
	return items
}

// Order is an open order as returned by the upstream unpaid-order lookup.
type Order struct {
	OrderID   int64      `json:"orderId"`
	PlaceID   int64      `json:"placeId"`
	StoreID   int64      `json:"storeId"`
	Status    string     `json:"orderStatus"`
	Items     []LineItem `json:"items"`
	OrderedAt time.Time  `json:"orderedAt"`
}

// Summary is one per-date row of the store report listing.
type Summary struct {
	Date       string `json:"date"`
	OrderCount int64  `json:"orderCount"`
	TotalSales int64  `json:"totalSales"`
}

// DailyOrder is one order row inside a daily report page.
type DailyOrder struct {
	OrderID   int64     `json:"orderId"`
	PaymentID int64     `json:"paymentId"`
	PlaceName string    `json:"placeName"`
	Status    string    `json:"orderStatus"`
	Total     int64     `json:"totalAmount"`
	OrderedAt time.Time `json:"orderedAt"`
}
