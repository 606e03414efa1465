package billing_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/calc"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// In-memory repositories for use-case tests. They mimic the Postgres layer's
// contract: GetByID returns copies, Update enforces the version check, the
// counter store is an atomic upsert per (concern, type, year).

type fakeClientRepo struct {
	clients map[string]*entity.Client
}

func (r *fakeClientRepo) GetByID(id string) (*entity.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type fakeDocumentRepo struct {
	docs map[string]*entity.Document

	// failUpdateOnce simulates a lost version race for the named document id.
	failUpdateOnce map[string]bool
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:           map[string]*entity.Document{},
		failUpdateOnce: map[string]bool{},
	}
}

func (r *fakeDocumentRepo) Create(doc *entity.Document) error {
	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("duplicate document id %s", doc.ID)
	}
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocumentRepo) GetByID(id string) (*entity.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (r *fakeDocumentRepo) Update(doc *entity.Document) error {
	if r.failUpdateOnce[doc.ID] {
		delete(r.failUpdateOnce, doc.ID)
		return domain.ErrConcurrentModification
	}
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return domain.ErrConcurrentModification
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocumentRepo) ListByConcernAndType(concernID string, docType entity.DocumentType) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range r.docs {
		if d.ConcernID == concernID && d.DocumentType == docType {
			out = append(out, cloneDoc(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeDocumentRepo) GetBySource(docType entity.DocumentType, sourceID string) (*entity.Document, error) {
	for _, d := range r.docs {
		if d.DocumentType != docType {
			continue
		}
		if (docType == entity.DocumentTypeOrder && d.SourceOfferID == sourceID) ||
			(docType == entity.DocumentTypeInvoice && d.SourceOrderID == sourceID) {
			return cloneDoc(d), nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) ListConcernIDs() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, d := range r.docs {
		if !seen[d.ConcernID] {
			seen[d.ConcernID] = true
			out = append(out, d.ConcernID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakePaymentRepo struct {
	entries []*entity.Payment
}

func (r *fakePaymentRepo) Create(p *entity.Payment) error {
	cp := *p
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakePaymentRepo) ListByInvoiceID(invoiceID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.entries {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeCounterRepo struct {
	seqs map[string]int64
}

func (r *fakeCounterRepo) NextSeq(concernID string, docType entity.DocumentType, year int) (int64, error) {
	if r.seqs == nil {
		r.seqs = map[string]int64{}
	}
	key := fmt.Sprintf("%s|%s|%d", concernID, docType, year)
	r.seqs[key]++
	return r.seqs[key], nil
}

// fakeTxRunner hands the shared fakes to the callback. The fakes have no real
// transaction semantics; the tests cover outcomes, not rollback mechanics.
type fakeTxRunner struct {
	docs     *fakeDocumentRepo
	payments *fakePaymentRepo
	counters *fakeCounterRepo
}

func (t *fakeTxRunner) RunBilling(ctx context.Context, fn func(
	docs repository.DocumentRepository,
	payments repository.PaymentRepository,
	counters repository.CounterRepository,
) error) error {
	return fn(t.docs, t.payments, t.counters)
}

func cloneDoc(d *entity.Document) *entity.Document {
	cp := *d
	cp.LineItems = make([]entity.LineItem, len(d.LineItems))
	copy(cp.LineItems, d.LineItems)
	cp.Totals.NetByKey = cloneDecimalMap(d.Totals.NetByKey)
	cp.Totals.VATByKey = cloneDecimalMap(d.Totals.VATByKey)
	if d.DueDate != nil {
		due := *d.DueDate
		cp.DueDate = &due
	}
	if d.CalcSummary != nil {
		s := *d.CalcSummary
		cp.CalcSummary = &s
	}
	return &cp
}

func cloneDecimalMap(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	if m == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fixture wires the use cases over fresh fakes with german defaults.
type fixture struct {
	docs      *fakeDocumentRepo
	payments  *fakePaymentRepo
	counters  *fakeCounterRepo
	lifecycle *billing.LifecycleUseCase
	ledger    *billing.LedgerUseCase
	overdue   *billing.OverdueUseCase
}

const (
	testConcern = "concern-1"
	testUser    = "user-1"
	testClient  = "client-1"
)

type fakeTaxRepo struct {
	rates calc.RateTable
}

func (r *fakeTaxRepo) RateTable(concernID string) (calc.RateTable, error) {
	return r.rates, nil
}

func (r *fakeTaxRepo) ListByConcern(concernID string) ([]*entity.TaxKey, error) {
	var out []*entity.TaxKey
	for key, rate := range r.rates {
		out = append(out, &entity.TaxKey{ConcernID: concernID, Key: key, RatePct: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func newFixture() *fixture {
	docs := newFakeDocumentRepo()
	payments := &fakePaymentRepo{}
	counters := &fakeCounterRepo{}
	tx := &fakeTxRunner{docs: docs, payments: payments, counters: counters}

	clients := &fakeClientRepo{clients: map[string]*entity.Client{
		testClient: {
			ID:        testClient,
			ConcernID: testConcern,
			Name:      "Tischlerei Brandt GmbH",
			BillingAddress: entity.Address{
				Street:     "Werkstattweg 4",
				PostalCode: "24103",
				City:       "Kiel",
				Country:    "DE",
			},
			DefaultTaxKey: "DE19",
		},
		"client-foreign": {
			ID:        "client-foreign",
			ConcernID: "concern-other",
			Name:      "Fremde Firma",
		},
	}}
	taxes := &fakeTaxRepo{rates: calc.RateTable{
		"DE19": decimal.NewFromInt(19),
		"DE7":  decimal.NewFromInt(7),
	}}
	cfg := billing.Config{
		OfferPrefix:        "AN",
		OrderPrefix:        "AB",
		InvoicePrefix:      "RE",
		NetTermsDays:       14,
		DefaultOverheadPct: decimal.NewFromInt(10),
	}

	return &fixture{
		docs:      docs,
		payments:  payments,
		counters:  counters,
		lifecycle: billing.NewLifecycleUseCase(tx, clients, docs, taxes, cfg),
		ledger:    billing.NewLedgerUseCase(tx, docs, payments),
		overdue:   billing.NewOverdueUseCase(docs),
	}
}
