package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// LedgerUseCase the payment ledger: append-only entries against invoices plus
// the derived open amount and payment state.
type LedgerUseCase struct {
	txRunner    TxRunner
	docRepo     repository.DocumentRepository
	paymentRepo repository.PaymentRepository
}

// NewLedgerUseCase builds the use case.
func NewLedgerUseCase(txRunner TxRunner, docRepo repository.DocumentRepository, paymentRepo repository.PaymentRepository) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, docRepo: docRepo, paymentRepo: paymentRepo}
}

// RegisterPayment appends a payment to an invoice's ledger and recomputes the
// open amount and state. An overpaying amount is recorded in full (the ledger
// reflects reality) but the open amount is clamped to zero and the invoice is
// flagged overpaid for reconciliation.
func (uc *LedgerUseCase) RegisterPayment(ctx context.Context, concernID, userID, invoiceID string, in dto.RegisterPaymentRequest) (*dto.PaymentResponse, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidPaymentAmount
	}
	if !entity.ValidPaymentMethod(in.Method) {
		return nil, domain.ErrInvalidInput
	}
	return uc.appendEntry(ctx, concernID, userID, invoiceID, in.Amount, in.Method, in.PaidAt, in.Note, false)
}

// RegisterAdjustment appends a compensating (reversal) entry with a negative
// amount. Payments are never deleted; this is the only reversal path.
func (uc *LedgerUseCase) RegisterAdjustment(ctx context.Context, concernID, userID, invoiceID string, in dto.RegisterAdjustmentRequest) (*dto.PaymentResponse, error) {
	if !in.Amount.IsNegative() {
		return nil, domain.ErrInvalidPaymentAmount
	}
	return uc.appendEntry(ctx, concernID, userID, invoiceID, in.Amount, entity.PaymentMethodOther, in.PaidAt, in.Note, true)
}

// ListPayments returns the full ledger of an invoice, oldest first.
func (uc *LedgerUseCase) ListPayments(ctx context.Context, concernID, invoiceID string) ([]*dto.PaymentResponse, error) {
	if _, err := uc.loadInvoice(concernID, invoiceID); err != nil {
		return nil, err
	}
	entries, err := uc.paymentRepo.ListByInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PaymentResponse, 0, len(entries))
	for _, p := range entries {
		out = append(out, toPaymentResponse(p))
	}
	return out, nil
}

func (uc *LedgerUseCase) appendEntry(ctx context.Context, concernID, userID, invoiceID string, amount decimal.Decimal, method, paidAtStr, note string, adjustment bool) (*dto.PaymentResponse, error) {
	invoice, err := uc.loadInvoice(concernID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.State == entity.InvoiceStateCancelled {
		return nil, domain.ErrDocumentLocked
	}
	paidAt, err := parseDateOrToday(paidAtStr)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	payment := &entity.Payment{
		ID:         uuid.New().String(),
		ConcernID:  concernID,
		InvoiceID:  invoiceID,
		Amount:     amount,
		Method:     method,
		PaidAt:     paidAt,
		Note:       note,
		Adjustment: adjustment,
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docs repository.DocumentRepository,
		payments repository.PaymentRepository,
		_ repository.CounterRepository,
	) error {
		if err := payments.Create(payment); err != nil {
			return err
		}
		entries, err := payments.ListByInvoiceID(invoiceID)
		if err != nil {
			return err
		}
		applyLedger(invoice, entries)
		invoice.UpdatedAt = time.Now()
		return docs.Update(invoice)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// applyLedger recomputes the payment-derived invoice fields from the full
// ledger: openAmount = max(0, gross - Σ amounts), the overpaid flag, and the
// state (paid / partiallyPaid; overdue is only entered by the sweep).
func applyLedger(invoice *entity.Document, entries []*entity.Payment) {
	total := decimal.Zero
	for _, p := range entries {
		total = total.Add(p.Amount)
	}
	open := invoice.Totals.GrandTotalGross.Sub(total)
	invoice.Overpaid = open.IsNegative()
	if open.IsNegative() {
		open = decimal.Zero
	}
	invoice.PaymentsTotal = total
	invoice.OpenAmount = open

	switch {
	case invoice.State == entity.InvoiceStateCancelled:
		// never touched by the ledger
	case open.IsZero():
		invoice.State = entity.InvoiceStatePaid
	case total.IsPositive() && open.LessThan(invoice.Totals.GrandTotalGross):
		if invoice.State != entity.InvoiceStateOverdue {
			invoice.State = entity.InvoiceStatePartiallyPaid
		}
	case invoice.State == entity.InvoiceStatePaid || invoice.State == entity.InvoiceStatePartiallyPaid:
		// adjustment reopened the invoice in full
		invoice.State = entity.InvoiceStateIssued
	}
}

func (uc *LedgerUseCase) loadInvoice(concernID, invoiceID string) (*entity.Document, error) {
	doc, err := uc.docRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.DocumentType != entity.DocumentTypeInvoice {
		return nil, domain.ErrNotFound
	}
	if doc.ConcernID != concernID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

func toPaymentResponse(p *entity.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		PaidAt:     p.PaidAt.Format(dateLayout),
		Note:       p.Note,
		Adjustment: p.Adjustment,
	}
}
