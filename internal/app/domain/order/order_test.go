package order

import "testing"

func TestCartTotal(t *testing.T) {
	cart := Cart{Items: []LineItem{
		{MenuID: 1, Price: 2500, Quantity: 2},
		{MenuID: 4, Price: 6000, Quantity: 1},
	}}
	if got := cart.Total(); got != 11000 {
		t.Errorf("Total = %d, want 11000", got)
	}

	if got := (Cart{}).Total(); got != 0 {
		t.Errorf("empty cart Total = %d, want 0", got)
	}
}

func TestRefundItems(t *testing.T) {
	cart := Cart{Items: []LineItem{
		{MenuID: 1, Price: 2500, Quantity: 2},
		{MenuID: 4, Price: 6000, Quantity: 1},
	}}

	items := cart.RefundItems()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0] != (RefundItem{MenuID: 1, Quantity: 2, OrderPrice: 5000}) {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1] != (RefundItem{MenuID: 4, Quantity: 1, OrderPrice: 6000}) {
		t.Errorf("items[1] = %+v", items[1])
	}
}
