package receipt

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	r := Receipt{
		StoreName:   "Counterline Cafe",
		BusinessNum: "123-45-67890",
		Owner:       "Kim",
		PhoneNumber: "02-1234-5678",
		StorePlace:  "Seoul",
		OrderID:     301,
		ReceiptDate: "20260828-0042",
		PlaceName:   "Table 3",
		JoinNumber:  "17",
		CreatedAt:   "2026-08-28 12:30:00",
		MenuList: []MenuLine{
			{MenuName: "Americano", TotalCount: 2, TotalPrice: 5000},
			{MenuName: "Croissant", TotalCount: 1, TotalPrice: 3500, DiscountRate: 10},
		},
		TenderList: []TenderInfo{
			{PaymentType: "CASH", PaidMoney: 5000},
			{
				PaymentType:       "CARD",
				PaidMoney:         3500,
				CardCompany:       "Unknown",
				CardNumber:        "0000-0000-0000-0000",
				InputMethod:       "SWIPE",
				ApproveDate:       "2026-08-28",
				ApproveNumber:     "A1B2C3",
				InstallmentPeriod: "0",
			},
		},
		TotalAmount: 8500,
	}

	out := Render(r)

	for _, want := range []string{
		"Counterline Cafe",
		"Order ID: 301",
		"Table: Table 3",
		"Americano x2  ₩5,000 (0% off)",
		"Croissant x1  ₩3,500 (10% off)",
		"CASH: ₩5,000",
		"CARD: Unknown 0000-0000-0000-0000",
		"Approval no: A1B2C3",
		"Total: ₩8,500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered receipt missing %q\n%s", want, out)
		}
	}

	if !strings.HasPrefix(out, line) {
		t.Errorf("receipt does not start with the divider line")
	}
	if !strings.HasSuffix(out, line) {
		t.Errorf("receipt does not end with the divider line")
	}
}

func TestWon(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "₩0"},
		{999, "₩999"},
		{1000, "₩1,000"},
		{15000, "₩15,000"},
		{1234567, "₩1,234,567"},
		{-2500, "₩-2,500"},
	}
	for _, tc := range cases {
		if got := won(tc.amount); got != tc.want {
			t.Errorf("won(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}
