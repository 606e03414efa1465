package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo PaymentRepository implementation. The payments table is
// append-only; there is no update or delete.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository builds the adapter. Pass a pool or tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create appends a ledger entry.
func (r *PaymentRepo) Create(p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payments (id, concern_id, invoice_id, amount, method, paid_at, note, adjustment, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.ConcernID, p.InvoiceID, p.Amount, p.Method, p.PaidAt,
		nullIfEmpty(p.Note), p.Adjustment, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByInvoiceID returns the full ledger of an invoice, oldest first.
func (r *PaymentRepo) ListByInvoiceID(invoiceID string) ([]*entity.Payment, error) {
	query := `
		SELECT id, concern_id, invoice_id, amount, method, paid_at,
		       COALESCE(note, ''), adjustment, created_by, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.ConcernID, &p.InvoiceID, &p.Amount, &p.Method, &p.PaidAt,
			&p.Note, &p.Adjustment, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
