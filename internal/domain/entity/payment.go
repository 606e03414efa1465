package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	PaymentMethodBank  = "bank"
	PaymentMethodCash  = "cash"
	PaymentMethodCard  = "card"
	PaymentMethodOther = "other"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodBank, PaymentMethodCash, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is one append-only ledger entry against an invoice. Entries are never
// mutated or deleted; a reversal is a new entry with a negative amount.
type Payment struct {
	ID         string
	ConcernID  string
	InvoiceID  string
	Amount     decimal.Decimal // gross; negative for adjustment entries
	Method     string
	PaidAt     time.Time
	Note       string
	Adjustment bool // true for compensating (reversal) entries
	CreatedBy  string
	CreatedAt  time.Time
}
