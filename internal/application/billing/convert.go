package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/calc"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/numbering"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// ConvertOfferToOrder converts an accepted offer into a new order. Line items
// and client snapshot are copied verbatim; totals are recomputed from the same
// inputs against the current rate table (guards against stale totals if rates
// changed since the offer was priced). The new order and the offer's state
// change commit in one transaction; the second of two concurrent conversions
// loses on the version check or on the source-offer uniqueness check.
func (uc *LifecycleUseCase) ConvertOfferToOrder(ctx context.Context, concernID, userID, offerID string) (*dto.DocumentResponse, error) {
	offer, err := uc.loadOwned(concernID, offerID, entity.DocumentTypeOffer)
	if err != nil {
		return nil, err
	}
	if offer.State == entity.OfferStateConvertedToOrder {
		return nil, domain.ErrAlreadyConverted
	}
	if !offer.Convertible() {
		return nil, domain.ErrInvalidStateTransition
	}

	rates, err := uc.taxRepo.RateTable(concernID)
	if err != nil {
		return nil, err
	}
	totals, err := calc.ComputeTotals(offer.LineItems, rates, offer.DiscountPct)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.Document{
		ID:             uuid.New().String(),
		ConcernID:      offer.ConcernID,
		DocumentType:   entity.DocumentTypeOrder,
		ClientID:       offer.ClientID,
		ClientSnapshot: offer.ClientSnapshot,
		Locale:         offer.Locale,
		Currency:       offer.Currency,
		IssueDate:      offer.IssueDate,
		NoteInternal:   offer.NoteInternal,
		NoteCustomer:   offer.NoteCustomer,
		LineItems:      copyItems(offer.LineItems),
		DiscountPct:    offer.DiscountPct,
		Totals:         totals,
		State:          entity.OrderStateOpen,
		SourceOfferID:  offer.ID,
		PaymentsTotal:  decimal.Zero,
		OpenAmount:     decimal.Zero,
		Version:        1,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docs repository.DocumentRepository,
		_ repository.PaymentRepository,
		counters repository.CounterRepository,
	) error {
		// Idempotency: exactly one order per source offer.
		if existing, err := docs.GetBySource(entity.DocumentTypeOrder, offer.ID); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrAlreadyConverted
		}
		// Numbered in the issue date's year, same basis as offer creation.
		year := order.IssueDate.Year()
		seq, err := counters.NextSeq(concernID, entity.DocumentTypeOrder, year)
		if err != nil {
			return err
		}
		order.Number = numbering.Format(uc.cfg.OrderPrefix, year, seq)
		if err := docs.Create(order); err != nil {
			return err
		}
		offer.State = entity.OfferStateConvertedToOrder
		offer.UpdatedAt = now
		return docs.Update(offer)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(order), nil
}

// ConvertOrderToInvoice converts an open or in-progress order into an issued
// invoice. The due date defaults to issueDate plus the configured net terms.
func (uc *LifecycleUseCase) ConvertOrderToInvoice(ctx context.Context, concernID, userID, orderID string, dueDateStr string) (*dto.DocumentResponse, error) {
	order, err := uc.loadOwned(concernID, orderID, entity.DocumentTypeOrder)
	if err != nil {
		return nil, err
	}
	if order.State == entity.OrderStateConvertedToInvoice {
		return nil, domain.ErrAlreadyConverted
	}
	if !order.Convertible() {
		return nil, domain.ErrInvalidStateTransition
	}

	rates, err := uc.taxRepo.RateTable(concernID)
	if err != nil {
		return nil, err
	}
	totals, err := calc.ComputeTotals(order.LineItems, rates, order.DiscountPct)
	if err != nil {
		return nil, err
	}

	dueDate := order.IssueDate.AddDate(0, 0, uc.cfg.NetTermsDays)
	if dueDateStr != "" {
		dueDate, err = time.Parse(dateLayout, dueDateStr)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
	}

	now := time.Now()
	invoice := &entity.Document{
		ID:             uuid.New().String(),
		ConcernID:      order.ConcernID,
		DocumentType:   entity.DocumentTypeInvoice,
		ClientID:       order.ClientID,
		ClientSnapshot: order.ClientSnapshot,
		Locale:         order.Locale,
		Currency:       order.Currency,
		IssueDate:      order.IssueDate,
		DueDate:        &dueDate,
		NoteInternal:   order.NoteInternal,
		NoteCustomer:   order.NoteCustomer,
		LineItems:      copyItems(order.LineItems),
		DiscountPct:    order.DiscountPct,
		Totals:         totals,
		State:          entity.InvoiceStateIssued,
		SourceOrderID:  order.ID,
		PaymentsTotal:  decimal.Zero,
		OpenAmount:     totals.GrandTotalGross,
		Version:        1,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docs repository.DocumentRepository,
		_ repository.PaymentRepository,
		counters repository.CounterRepository,
	) error {
		if existing, err := docs.GetBySource(entity.DocumentTypeInvoice, order.ID); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrAlreadyConverted
		}
		year := invoice.IssueDate.Year()
		seq, err := counters.NextSeq(concernID, entity.DocumentTypeInvoice, year)
		if err != nil {
			return err
		}
		invoice.Number = numbering.Format(uc.cfg.InvoicePrefix, year, seq)
		if err := docs.Create(invoice); err != nil {
			return err
		}
		order.State = entity.OrderStateConvertedToInvoice
		order.UpdatedAt = now
		return docs.Update(order)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(invoice), nil
}

// RepairConversions heals documents showing the partial-conversion signature: a
// descendant exists but its source was never marked converted. That state
// cannot arise from the transactional conversion above, but can come in with
// data migrated from stores without cross-document transactions. Idempotent.
func (uc *LifecycleUseCase) RepairConversions(ctx context.Context, concernID string) (int, error) {
	repaired := 0
	orders, err := uc.docRepo.ListByConcernAndType(concernID, entity.DocumentTypeOrder)
	if err != nil {
		return 0, err
	}
	for _, order := range orders {
		if order.SourceOfferID == "" {
			continue
		}
		offer, err := uc.docRepo.GetByID(order.SourceOfferID)
		if err != nil {
			return repaired, err
		}
		if offer == nil || offer.State == entity.OfferStateConvertedToOrder {
			continue
		}
		offer.State = entity.OfferStateConvertedToOrder
		offer.UpdatedAt = time.Now()
		if err := uc.docRepo.Update(offer); err != nil {
			return repaired, err
		}
		repaired++
	}
	invoices, err := uc.docRepo.ListByConcernAndType(concernID, entity.DocumentTypeInvoice)
	if err != nil {
		return repaired, err
	}
	for _, invoice := range invoices {
		if invoice.SourceOrderID == "" {
			continue
		}
		order, err := uc.docRepo.GetByID(invoice.SourceOrderID)
		if err != nil {
			return repaired, err
		}
		if order == nil || order.State == entity.OrderStateConvertedToInvoice {
			continue
		}
		order.State = entity.OrderStateConvertedToInvoice
		order.UpdatedAt = time.Now()
		if err := uc.docRepo.Update(order); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

func copyItems(items []entity.LineItem) []entity.LineItem {
	out := make([]entity.LineItem, len(items))
	copy(out, items)
	return out
}
