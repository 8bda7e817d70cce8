// Package payment defines the tender and payment-submission types exchanged
// with the upstream commerce API.
package payment

import "time"

// TenderType distinguishes the two payment channels.
type TenderType string

const (
	TypeCash TenderType = "CASH"
	TypeCard TenderType = "CARD"
)

// Placeholder card metadata attached to mock card tenders. The upstream API
// requires the fields even when no real card is read.
const (
	MockCardCompany = "Unknown"
	MockCardNumber  = "0000-0000-0000-0000"
	MockCardExpiry  = "2030/12"
)

// Tender is one applied amount of a specific payment type.
type Tender struct {
	PaidMoney   int64      `json:"paidMoney"`
	PaymentType TenderType `json:"paymentType"`
	CardCompany string     `json:"cardCompany"`
	CardNumber  string     `json:"cardNumber"`
	ExpiryDate  string     `json:"expiryDate"`
}

// CashTender builds a cash tender entry.
func CashTender(amount int64) Tender {
	return Tender{PaidMoney: amount, PaymentType: TypeCash}
}

// CardTender builds a card tender entry with the placeholder card metadata.
func CardTender(amount int64) Tender {
	return Tender{
		PaidMoney:   amount,
		PaymentType: TypeCard,
		CardCompany: MockCardCompany,
		CardNumber:  MockCardNumber,
		ExpiryDate:  MockCardExpiry,
	}
}

// Request is the payment submission body for POST /api/pay.
type Request struct {
	OrderID        int64    `json:"orderId"`
	PlaceID        int64    `json:"placeId"`
	StoreID        int64    `json:"storeId"`
	TotalAmount    int64    `json:"totalAmount"`
	DiscountAmount int64    `json:"discountAmount"`
	PayList        []Tender `json:"payList"`
}

// Record is a stored payment as returned by the upstream API.
type Record struct {
	PaymentID int64     `json:"paymentId"`
	OrderID   int64     `json:"orderId"`
	StoreID   int64     `json:"storeId"`
	Amount    int64     `json:"totalAmount"`
	CreatedAt time.Time `json:"createdAt"`
}
