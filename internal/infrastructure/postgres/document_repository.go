package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo DocumentRepository implementation (usable with pool or tx).
// Line items, client snapshot, totals and the costing summary are stored as
// JSONB; money scalars as NUMERIC.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository builds the adapter. Pass a pool or tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, concern_id, document_type, number, client_id, client_snapshot,
	locale, currency, issue_date, due_date, note_internal, note_customer,
	line_items, discount_pct, totals, overhead_pct, calc_summary, state,
	source_offer_id, source_order_id, payments_total, open_amount, overpaid,
	version, created_by, created_at, updated_at`

// Create persists a new document with version 1.
func (r *DocumentRepo) Create(doc *entity.Document) error {
	snapshot, items, totals, summary, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err = r.q.Exec(context.Background(), query,
		doc.ID, doc.ConcernID, string(doc.DocumentType), doc.Number, doc.ClientID, snapshot,
		doc.Locale, doc.Currency, doc.IssueDate, doc.DueDate, nullIfEmpty(doc.NoteInternal), nullIfEmpty(doc.NoteCustomer),
		items, doc.DiscountPct, totals, doc.OverheadPct, summary, doc.State,
		nullIfEmpty(doc.SourceOfferID), nullIfEmpty(doc.SourceOrderID), doc.PaymentsTotal, doc.OpenAmount, doc.Overpaid,
		doc.Version, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document number or source already exists: %w", err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update writes the document guarded by the optimistic version check and bumps
// the version. A stale version yields domain.ErrConcurrentModification.
func (r *DocumentRepo) Update(doc *entity.Document) error {
	snapshot, items, totals, summary, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents
		SET client_snapshot = $3,
		    locale          = $4,
		    due_date        = $5,
		    note_internal   = $6,
		    note_customer   = $7,
		    line_items      = $8,
		    discount_pct    = $9,
		    totals          = $10,
		    overhead_pct    = $11,
		    calc_summary    = $12,
		    state           = $13,
		    payments_total  = $14,
		    open_amount     = $15,
		    overpaid        = $16,
		    updated_at      = $17,
		    version         = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.Version, snapshot,
		doc.Locale, doc.DueDate, nullIfEmpty(doc.NoteInternal), nullIfEmpty(doc.NoteCustomer),
		items, doc.DiscountPct, totals, doc.OverheadPct, summary, doc.State,
		doc.PaymentsTotal, doc.OpenAmount, doc.Overpaid, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	doc.Version++
	return nil
}

// GetByID loads a full document; (nil, nil) when it does not exist.
func (r *DocumentRepo) GetByID(id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetBySource loads the document converted from the source id; (nil, nil) if
// no descendant exists yet.
func (r *DocumentRepo) GetBySource(docType entity.DocumentType, sourceID string) (*entity.Document, error) {
	sourceColumn := "source_offer_id"
	if docType == entity.DocumentTypeInvoice {
		sourceColumn = "source_order_id"
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = $1 AND ` + sourceColumn + ` = $2`
	doc, err := scanDocument(r.q.QueryRow(context.Background(), query, string(docType), sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by source: %w", err)
	}
	return doc, nil
}

// ListByConcernAndType lists documents of a type for a concern, newest first.
func (r *DocumentRepo) ListByConcernAndType(concernID string, docType entity.DocumentType) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents WHERE concern_id = $1 AND document_type = $2
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, concernID, string(docType))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// ListConcernIDs lists the concerns owning documents (overdue sweep targets).
func (r *DocumentRepo) ListConcernIDs() ([]string, error) {
	rows, err := r.q.Query(context.Background(), `SELECT DISTINCT concern_id FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("list concerns: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan concern id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func marshalDocumentJSON(doc *entity.Document) (snapshot, items, totals, summary []byte, err error) {
	if snapshot, err = json.Marshal(doc.ClientSnapshot); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal client snapshot: %w", err)
	}
	if items, err = json.Marshal(doc.LineItems); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal line items: %w", err)
	}
	if totals, err = json.Marshal(doc.Totals); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal totals: %w", err)
	}
	if doc.CalcSummary != nil {
		if summary, err = json.Marshal(doc.CalcSummary); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal calc summary: %w", err)
		}
	}
	return snapshot, items, totals, summary, nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var docType string
	var snapshot, items, totals, summary []byte
	var dueDate *time.Time
	var noteInternal, noteCustomer, sourceOfferID, sourceOrderID *string

	err := row.Scan(
		&doc.ID, &doc.ConcernID, &docType, &doc.Number, &doc.ClientID, &snapshot,
		&doc.Locale, &doc.Currency, &doc.IssueDate, &dueDate, &noteInternal, &noteCustomer,
		&items, &doc.DiscountPct, &totals, &doc.OverheadPct, &summary, &doc.State,
		&sourceOfferID, &sourceOrderID, &doc.PaymentsTotal, &doc.OpenAmount, &doc.Overpaid,
		&doc.Version, &doc.CreatedBy, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.DocumentType = entity.DocumentType(docType)
	doc.DueDate = dueDate
	doc.NoteInternal = derefStr(noteInternal)
	doc.NoteCustomer = derefStr(noteCustomer)
	doc.SourceOfferID = derefStr(sourceOfferID)
	doc.SourceOrderID = derefStr(sourceOrderID)

	if err := json.Unmarshal(snapshot, &doc.ClientSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal client snapshot: %w", err)
	}
	if err := json.Unmarshal(items, &doc.LineItems); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	if err := json.Unmarshal(totals, &doc.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	if len(summary) > 0 {
		var cs entity.CalcSummary
		if err := json.Unmarshal(summary, &cs); err != nil {
			return nil, fmt.Errorf("unmarshal calc summary: %w", err)
		}
		doc.CalcSummary = &cs
	}
	return &doc, nil
}
