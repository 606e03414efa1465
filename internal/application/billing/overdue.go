package billing

import (
	"context"
	"errors"
	"time"

	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// OverdueUseCase the idempotent overdue sweep. Safe to run repeatedly and
// concurrently with itself: the flags it writes are pure functions of stored
// data, and version-check losers are simply skipped.
type OverdueUseCase struct {
	docRepo repository.DocumentRepository
}

// NewOverdueUseCase builds the use case.
func NewOverdueUseCase(docRepo repository.DocumentRepository) *OverdueUseCase {
	return &OverdueUseCase{docRepo: docRepo}
}

// Refresh flips issued/partially-paid invoices past their due date with an open
// amount to overdue, and overdue/partially-paid invoices with nothing open to
// paid. Cancelled and paid invoices are never regressed.
func (uc *OverdueUseCase) Refresh(ctx context.Context, concernID string) (*dto.SweepResponse, error) {
	invoices, err := uc.docRepo.ListByConcernAndType(concernID, entity.DocumentTypeInvoice)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	res := &dto.SweepResponse{}
	for _, inv := range invoices {
		target := ""
		switch inv.State {
		case entity.InvoiceStateIssued, entity.InvoiceStatePartiallyPaid:
			if inv.DueDate != nil && inv.DueDate.Before(today) && inv.OpenAmount.IsPositive() {
				target = entity.InvoiceStateOverdue
			} else if inv.State == entity.InvoiceStatePartiallyPaid && inv.OpenAmount.IsZero() {
				target = entity.InvoiceStatePaid
			}
		case entity.InvoiceStateOverdue:
			if inv.OpenAmount.IsZero() {
				target = entity.InvoiceStatePaid
			}
		}
		if target == "" || target == inv.State {
			continue
		}
		inv.State = target
		inv.UpdatedAt = now
		if err := uc.docRepo.Update(inv); err != nil {
			// Concurrent sweep or payment won the version race; the other
			// writer worked from the same stored data.
			if errors.Is(err, domain.ErrConcurrentModification) {
				continue
			}
			return res, err
		}
		if target == entity.InvoiceStateOverdue {
			res.FlippedOverdue++
		} else {
			res.FlippedPaid++
		}
	}
	return res, nil
}

// RefreshAll runs the sweep for every concern that owns documents. Used by the
// cron schedule.
func (uc *OverdueUseCase) RefreshAll(ctx context.Context) (*dto.SweepResponse, error) {
	concerns, err := uc.docRepo.ListConcernIDs()
	if err != nil {
		return nil, err
	}
	total := &dto.SweepResponse{}
	for _, concernID := range concerns {
		res, err := uc.Refresh(ctx, concernID)
		if err != nil {
			return total, err
		}
		total.FlippedOverdue += res.FlippedOverdue
		total.FlippedPaid += res.FlippedPaid
	}
	return total, nil
}
