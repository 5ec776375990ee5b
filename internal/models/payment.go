package models

import "fmt"

// FeeQuote is the derived fee breakdown for a context. All amounts are
// integer rupees; the schedule only produces whole-rupee components
// (base 200 -> gst 36, base 300 -> gst 54), so nothing here rounds.
type FeeQuote struct {
	Base  int64 `json:"base"`
	GST   int64 `json:"gst"`
	CGST  int64 `json:"cgst"`
	SGST  int64 `json:"sgst"`
	Total int64 `json:"total"`
}

// TotalPaise returns the payable total in minor units. This is the single
// conversion point for everything sent to the gateway, so the order amount
// and the checkout display can never disagree.
func (q FeeQuote) TotalPaise() int64 {
	return q.Total * 100
}

// Display formats an amount the way the invoice shows it.
func Display(rupees int64) string {
	return fmt.Sprintf("%d.00", rupees)
}

// Order is the gateway's response to order creation.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // paise, echoed by the gateway
	Currency string `json:"currency"`
}

// CheckoutCallback is the raw success payload from the hosted checkout.
// It is passed to verification verbatim; a signature mismatch must fail
// there, never be corrected client-side.
type CheckoutCallback struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// PaymentOutcome exists only after a verified gateway callback. It is never
// mutated after creation; its presence is the sole gate to confirmation.
type PaymentOutcome struct {
	TransactionID string   `json:"transactionId"`
	OrderID       string   `json:"orderId,omitempty"`
	Quote         FeeQuote `json:"quote"`
}
