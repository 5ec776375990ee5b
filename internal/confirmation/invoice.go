package confirmation

import (
	"fmt"
	"math/rand"
	"time"

	"apcc-pipeline/internal/models"
)

// Invoice is the paid-session receipt: what the confirmation view renders
// and what the notifier sends out.
type Invoice struct {
	Number        string          `json:"invoiceNo"`
	Date          string          `json:"date"` // dd/mm/yyyy
	Name          string          `json:"name"`
	Mobile        string          `json:"mobile"`
	Email         string          `json:"email"`
	Context       models.Context  `json:"context"`
	AgentCode     string          `json:"agentCode,omitempty"`
	Quote         models.FeeQuote `json:"quote"`
	TransactionID string          `json:"transactionId"`
	OrderID       string          `json:"orderId,omitempty"`
}

// newInvoiceNumber builds an INV/APCC/<year>/<serial> number. The serial is
// four digits, matching the numbers already issued on paper.
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV/APCC/%d/%04d", now.Year(), 1000+rand.Intn(9000))
}
