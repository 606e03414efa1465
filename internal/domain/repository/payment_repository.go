package repository

import "github.com/craftbooks/billing-api/internal/domain/entity"

// PaymentRepository append-only payment ledger. Entries are never updated or
// deleted; reversals are new entries with negative amounts.
type PaymentRepository interface {
	Create(p *entity.Payment) error
	ListByInvoiceID(invoiceID string) ([]*entity.Payment, error)
}
