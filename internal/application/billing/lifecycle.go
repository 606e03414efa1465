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

const dateLayout = "2006-01-02"

// LifecycleUseCase owns the offer/order/invoice state machines and the
// conversion operations between them. Totals are recomputed on every line-item
// mutation; numbers are issued by the counter store at creation time.
type LifecycleUseCase struct {
	txRunner   TxRunner
	clientRepo repository.ClientRepository
	docRepo    repository.DocumentRepository
	taxRepo    repository.TaxRepository
	cfg        Config
}

// NewLifecycleUseCase builds the use case.
func NewLifecycleUseCase(
	txRunner TxRunner,
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	taxRepo repository.TaxRepository,
	cfg Config,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		txRunner:   txRunner,
		clientRepo: clientRepo,
		docRepo:    docRepo,
		taxRepo:    taxRepo,
		cfg:        cfg,
	}
}

// CreateOffer snapshots the client, assigns a number, computes totals and the
// costing summary and stores the offer in state draft.
func (uc *LifecycleUseCase) CreateOffer(ctx context.Context, concernID, userID string, in dto.CreateOfferRequest) (*dto.DocumentResponse, error) {
	if in.ClientID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	client, err := uc.clientRepo.GetByID(in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrClientNotFound
	}
	if client.ConcernID != concernID {
		return nil, domain.ErrForbidden
	}

	rates, err := uc.taxRepo.RateTable(concernID)
	if err != nil {
		return nil, err
	}

	items := itemsFromRequest(in.Items)
	totals, err := calc.ComputeTotals(items, rates, in.DiscountPct)
	if err != nil {
		return nil, err
	}

	overheadPct := uc.cfg.DefaultOverheadPct
	if in.OverheadPct != nil {
		overheadPct = *in.OverheadPct
	}
	summary := calc.ComputeCalcSummary(items, overheadPct)

	issueDate, err := parseDateOrToday(in.IssueDate)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	locale := in.Locale
	if locale == "" {
		locale = "de"
	}

	now := time.Now()
	snapshot := client.Snapshot()
	doc := &entity.Document{
		ID:             uuid.New().String(),
		ConcernID:      concernID,
		DocumentType:   entity.DocumentTypeOffer,
		ClientID:       client.ID,
		ClientSnapshot: snapshot,
		Locale:         locale,
		Currency:       snapshot.Currency,
		IssueDate:      issueDate,
		NoteInternal:   in.NoteInternal,
		NoteCustomer:   in.NoteCustomer,
		LineItems:      items,
		DiscountPct:    in.DiscountPct,
		Totals:         totals,
		OverheadPct:    overheadPct,
		CalcSummary:    &summary,
		State:          entity.OfferStateDraft,
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
		seq, err := counters.NextSeq(concernID, entity.DocumentTypeOffer, issueDate.Year())
		if err != nil {
			return err
		}
		doc.Number = numbering.Format(uc.cfg.OfferPrefix, issueDate.Year(), seq)
		return docs.Create(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// GetDocument loads a document of the expected type for the concern.
func (uc *LifecycleUseCase) GetDocument(ctx context.Context, concernID, id string, docType entity.DocumentType) (*dto.DocumentResponse, error) {
	doc, err := uc.loadOwned(concernID, id, docType)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// ListDocuments lists all documents of a type for the concern.
func (uc *LifecycleUseCase) ListDocuments(ctx context.Context, concernID string, docType entity.DocumentType) ([]*dto.DocumentResponse, error) {
	docs, err := uc.docRepo.ListByConcernAndType(concernID, docType)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

// UpdateDocument replaces line items, discount and notes of an editable offer
// or order and re-runs the calculator. A converted or issued document is
// rejected with ErrDocumentLocked.
func (uc *LifecycleUseCase) UpdateDocument(ctx context.Context, concernID, id string, docType entity.DocumentType, in dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	doc, err := uc.loadOwned(concernID, id, docType)
	if err != nil {
		return nil, err
	}
	if !doc.Editable() {
		return nil, domain.ErrDocumentLocked
	}

	if len(in.Items) > 0 {
		doc.LineItems = itemsFromRequest(in.Items)
	}
	if in.DiscountPct != nil {
		doc.DiscountPct = *in.DiscountPct
	}
	if in.NoteInternal != nil {
		doc.NoteInternal = *in.NoteInternal
	}
	if in.NoteCustomer != nil {
		doc.NoteCustomer = *in.NoteCustomer
	}

	rates, err := uc.taxRepo.RateTable(concernID)
	if err != nil {
		return nil, err
	}
	doc.Totals, err = calc.ComputeTotals(doc.LineItems, rates, doc.DiscountPct)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType == entity.DocumentTypeOffer {
		if in.OverheadPct != nil {
			doc.OverheadPct = *in.OverheadPct
		}
		summary := calc.ComputeCalcSummary(doc.LineItems, doc.OverheadPct)
		doc.CalcSummary = &summary
	}
	doc.UpdatedAt = time.Now()

	if err := uc.docRepo.Update(doc); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// SetOfferState performs a manual offer transition (send, accept, reject,
// expire). Conversion is not reachable through here.
func (uc *LifecycleUseCase) SetOfferState(ctx context.Context, concernID, id, state string) (*dto.DocumentResponse, error) {
	doc, err := uc.loadOwned(concernID, id, entity.DocumentTypeOffer)
	if err != nil {
		return nil, err
	}
	if state == entity.OfferStateConvertedToOrder || !entity.OfferTransitionValid(doc.State, state) {
		return nil, domain.ErrInvalidStateTransition
	}
	doc.State = state
	doc.UpdatedAt = time.Now()
	if err := uc.docRepo.Update(doc); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// SetOrderState performs a manual order transition (start, cancel).
func (uc *LifecycleUseCase) SetOrderState(ctx context.Context, concernID, id, state string) (*dto.DocumentResponse, error) {
	doc, err := uc.loadOwned(concernID, id, entity.DocumentTypeOrder)
	if err != nil {
		return nil, err
	}
	if state == entity.OrderStateConvertedToInvoice || !entity.OrderTransitionValid(doc.State, state) {
		return nil, domain.ErrInvalidStateTransition
	}
	doc.State = state
	doc.UpdatedAt = time.Now()
	if err := uc.docRepo.Update(doc); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// CancelInvoice cancels an invoice manually. Paid invoices cannot be cancelled.
func (uc *LifecycleUseCase) CancelInvoice(ctx context.Context, concernID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.loadOwned(concernID, id, entity.DocumentTypeInvoice)
	if err != nil {
		return nil, err
	}
	if !entity.InvoiceTransitionValid(doc.State, entity.InvoiceStateCancelled) {
		return nil, domain.ErrInvalidStateTransition
	}
	doc.State = entity.InvoiceStateCancelled
	doc.UpdatedAt = time.Now()
	if err := uc.docRepo.Update(doc); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// VerifyTotals recomputes a document's totals against the current rate table
// and, when repair is requested, persists the fresh totals. Mismatches are
// integrity warnings, not failures.
func (uc *LifecycleUseCase) VerifyTotals(ctx context.Context, concernID, id string, docType entity.DocumentType, repair bool) (*dto.IntegrityResponse, error) {
	doc, err := uc.loadOwned(concernID, id, docType)
	if err != nil {
		return nil, err
	}
	rates, err := uc.taxRepo.RateTable(concernID)
	if err != nil {
		return nil, err
	}
	fresh, match, err := calc.VerifyTotals(doc.Totals, doc.LineItems, rates, doc.DiscountPct)
	if err != nil {
		return nil, err
	}
	repaired := false
	if !match && repair {
		doc.Totals = fresh
		doc.UpdatedAt = time.Now()
		if err := uc.docRepo.Update(doc); err != nil {
			return nil, err
		}
		repaired = true
	}
	return &dto.IntegrityResponse{
		ID:       doc.ID,
		Match:    match,
		Repaired: repaired,
		Fresh:    toTotalsResponse(fresh),
	}, nil
}

// loadOwned loads a document and checks type and concern ownership.
func (uc *LifecycleUseCase) loadOwned(concernID, id string, docType entity.DocumentType) (*entity.Document, error) {
	doc, err := uc.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.DocumentType != docType {
		return nil, domain.ErrNotFound
	}
	if doc.ConcernID != concernID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

func itemsFromRequest(in []dto.LineItemRequest) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(in))
	for i, r := range in {
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		items = append(items, entity.LineItem{
			Position:    pos,
			Description: r.Description,
			Quantity:    r.Quantity,
			Unit:        r.Unit,
			UnitPrice:   r.UnitPrice,
			TaxKey:      r.TaxKey,
			DiscountPct: r.DiscountPct,
			Type:        r.Type,
			UnitCost:    r.UnitCost,
			UnitSell:    r.UnitSell,
			MaterialID:  r.MaterialID,
			PersonnelID: r.PersonnelID,
		})
	}
	return items
}

func parseDateOrToday(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, s)
}

func toTotalsResponse(t entity.Totals) dto.TotalsResponse {
	return dto.TotalsResponse{
		SubtotalNet:          t.SubtotalNet,
		LineDiscountTotal:    t.LineDiscountTotal,
		ItemNetAfterDiscount: t.ItemNetAfterDiscount,
		DiscountPct:          t.DiscountPct,
		NetByKey:             t.NetByKey,
		VATByKey:             t.VATByKey,
		TotalVAT:             t.TotalVAT,
		GrandTotalGross:      t.GrandTotalGross,
	}
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:             d.ID,
		ConcernID:      d.ConcernID,
		DocumentType:   string(d.DocumentType),
		Number:         d.Number,
		ClientID:       d.ClientID,
		ClientSnapshot: d.ClientSnapshot,
		Locale:         d.Locale,
		Currency:       d.Currency,
		IssueDate:      d.IssueDate.Format(dateLayout),
		NoteInternal:   d.NoteInternal,
		NoteCustomer:   d.NoteCustomer,
		Items:          d.LineItems,
		Totals:         toTotalsResponse(d.Totals),
		State:          d.State,
		SourceOfferID:  d.SourceOfferID,
		SourceOrderID:  d.SourceOrderID,
		PaymentsTotal:  d.PaymentsTotal,
		OpenAmount:     d.OpenAmount,
		Overpaid:       d.Overpaid,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
	if d.DueDate != nil {
		resp.DueDate = d.DueDate.Format(dateLayout)
	}
	if d.CalcSummary != nil {
		resp.CalcSummary = &dto.CalcSummaryResponse{
			MaterialsCost: d.CalcSummary.MaterialsCost,
			LaborCost:     d.CalcSummary.LaborCost,
			OverheadPct:   d.CalcSummary.OverheadPct,
			OverheadValue: d.CalcSummary.OverheadValue,
			CostTotal:     d.CalcSummary.CostTotal,
			SellTotal:     d.CalcSummary.SellTotal,
			MarginValue:   d.CalcSummary.MarginValue,
			MarginPct:     d.CalcSummary.MarginPct,
		}
	}
	return resp
}
