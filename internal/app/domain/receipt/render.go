package receipt

import (
	"fmt"
	"strings"
)

const (
	line    = "====================================="
	subLine = "-------------------------------------"
)

// Render produces the fixed-width text form of a receipt, suitable for a
// line printer or a monospace preview.
func Render(r Receipt) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "%s\n", r.StoreName)
	fmt.Fprintf(&b, "Business no: %s\n", r.BusinessNum)
	fmt.Fprintf(&b, "Owner: %s\n", r.Owner)
	fmt.Fprintf(&b, "Phone: %s\n", r.PhoneNumber)
	fmt.Fprintf(&b, "Address: %s\n", r.StorePlace)
	fmt.Fprintf(&b, "%s\n", subLine)
	fmt.Fprintf(&b, "Order ID: %d\n", r.OrderID)
	fmt.Fprintf(&b, "Receipt no: %s\n", r.ReceiptDate)
	fmt.Fprintf(&b, "Table: %s\n", r.PlaceName)
	fmt.Fprintf(&b, "Ticket no: %s\n", r.JoinNumber)
	fmt.Fprintf(&b, "Paid at: %s\n", r.CreatedAt)
	fmt.Fprintf(&b, "%s\n", subLine)

	b.WriteString("Items:\n")
	for _, menu := range r.MenuList {
		fmt.Fprintf(&b, "%s x%d  %s (%d%% off)\n",
			menu.MenuName, menu.TotalCount, won(menu.TotalPrice), menu.DiscountRate)
	}
	fmt.Fprintf(&b, "%s\n", subLine)

	b.WriteString("Tenders:\n")
	for _, tender := range r.TenderList {
		if tender.PaymentType == "CARD" {
			fmt.Fprintf(&b, "CARD: %s %s\n", tender.CardCompany, tender.CardNumber)
			fmt.Fprintf(&b, "Input method: %s\n", tender.InputMethod)
			fmt.Fprintf(&b, "Approved at: %s\n", tender.ApproveDate)
			fmt.Fprintf(&b, "Approval no: %s\n", tender.ApproveNumber)
			fmt.Fprintf(&b, "Installments: %s\n", tender.InstallmentPeriod)
			fmt.Fprintf(&b, "Amount: %s\n", won(tender.PaidMoney))
		} else {
			fmt.Fprintf(&b, "CASH: %s\n", won(tender.PaidMoney))
		}
	}
	fmt.Fprintf(&b, "%s\n", subLine)

	fmt.Fprintf(&b, "Total: %s\n", won(r.TotalAmount))
	b.WriteString(line)

	return b.String()
}

// won formats an amount with thousands separators and the currency sign.
func won(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return "₩" + sign + strings.Join(groups, ",")
}
