// Package receipt defines the receipt record returned by the upstream API
// and a fixed-width text rendering of it for terminal printing.
package receipt

// MenuLine is one aggregated menu entry on a receipt.
type MenuLine struct {
	MenuName     string `json:"menuName"`
	TotalCount   int64  `json:"totalCount"`
	TotalPrice   int64  `json:"totalPrice"`
	DiscountRate int64  `json:"discountRate"`
}

// TenderInfo is one settled tender on a receipt. Card fields are only
// populated for CARD entries.
type TenderInfo struct {
	PaymentType       string `json:"paymentType"`
	PaidMoney         int64  `json:"paidMoney"`
	CardCompany       string `json:"cardCompany"`
	CardNumber        string `json:"cardNumber"`
	InputMethod       string `json:"inputMethod"`
	ApproveDate       string `json:"approveDate"`
	ApproveNumber     string `json:"approveNumber"`
	InstallmentPeriod string `json:"installmentPeriod"`
}

// Receipt is the full receipt record for a settled order.
type Receipt struct {
	StoreName   string       `json:"storeName"`
	BusinessNum string       `json:"businessNum"`
	Owner       string       `json:"owner"`
	PhoneNumber string       `json:"phoneNumber"`
	StorePlace  string       `json:"storePlace"`
	OrderID     int64        `json:"orderId"`
	ReceiptDate string       `json:"receiptDate"`
	PlaceName   string       `json:"placeName"`
	JoinNumber  string       `json:"joinNumber"`
	CreatedAt   string       `json:"createdAt"`
	MenuList    []MenuLine   `json:"menuList"`
	TenderList  []TenderInfo `json:"cardInfoList"`
	TotalAmount int64        `json:"totalAmount"`
}
