package dto

import (
	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// LineItemRequest one position of a document in create/update requests.
type LineItemRequest struct {
	Position    int             `json:"position,omitempty"` // assigned sequentially when 0
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxKey      string          `json:"tax_key"`
	DiscountPct decimal.Decimal `json:"discount_pct,omitempty"`
	Type        string          `json:"type,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost,omitempty"`
	UnitSell    decimal.Decimal `json:"unit_sell,omitempty"`
	MaterialID  string          `json:"material_id,omitempty"`
	PersonnelID string          `json:"personnel_id,omitempty"`
}

// CreateOfferRequest body for POST /api/offers.
type CreateOfferRequest struct {
	ClientID     string            `json:"client_id"`
	Locale       string            `json:"locale,omitempty"`
	IssueDate    string            `json:"issue_date,omitempty"` // YYYY-MM-DD, default today
	NoteInternal string            `json:"note_internal,omitempty"`
	NoteCustomer string            `json:"note_customer,omitempty"`
	Items        []LineItemRequest `json:"items"`
	DiscountPct  decimal.Decimal   `json:"discount_pct,omitempty"`
	OverheadPct  *decimal.Decimal  `json:"overhead_pct,omitempty"` // default from config
}

// UpdateDocumentRequest body for PUT /api/offers/:id and PUT /api/orders/:id.
// Only editable states accept it; totals are always recomputed. Absent fields
// keep their current value.
type UpdateDocumentRequest struct {
	Items        []LineItemRequest `json:"items"`
	DiscountPct  *decimal.Decimal  `json:"discount_pct,omitempty"`
	OverheadPct  *decimal.Decimal  `json:"overhead_pct,omitempty"` // offers only
	NoteInternal *string           `json:"note_internal,omitempty"`
	NoteCustomer *string           `json:"note_customer,omitempty"`
}

// ConvertOrderRequest body for POST /api/orders/:id/convert.
type ConvertOrderRequest struct {
	DueDate string `json:"due_date,omitempty"` // YYYY-MM-DD, default issueDate + net terms
}

// RegisterPaymentRequest body for POST /api/invoices/:id/payments.
type RegisterPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"` // gross, positive
	Method string          `json:"method"` // bank | cash | card | other
	PaidAt string          `json:"paid_at,omitempty"` // YYYY-MM-DD, default today
	Note   string          `json:"note,omitempty"`
}

// RegisterAdjustmentRequest body for POST /api/invoices/:id/adjustments.
// Amount is negative: a compensating ledger entry, never a deletion.
type RegisterAdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PaidAt string          `json:"paid_at,omitempty"`
	Note   string          `json:"note"`
}

// PaymentResponse ledger entry in responses.
type PaymentResponse struct {
	ID         string          `json:"id"`
	InvoiceID  string          `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	PaidAt     string          `json:"paid_at"`
	Note       string          `json:"note,omitempty"`
	Adjustment bool            `json:"adjustment,omitempty"`
}

// TotalsResponse derived totals in responses.
type TotalsResponse struct {
	SubtotalNet          decimal.Decimal            `json:"subtotal_net"`
	LineDiscountTotal    decimal.Decimal            `json:"line_discount_total"`
	ItemNetAfterDiscount decimal.Decimal            `json:"item_net_after_discount"`
	DiscountPct          decimal.Decimal            `json:"discount_pct"`
	NetByKey             map[string]decimal.Decimal `json:"net_by_key"`
	VATByKey             map[string]decimal.Decimal `json:"vat_by_key"`
	TotalVAT             decimal.Decimal            `json:"total_vat"`
	GrandTotalGross      decimal.Decimal            `json:"grand_total_gross"`
}

// CalcSummaryResponse cost/margin summary (offers only).
type CalcSummaryResponse struct {
	MaterialsCost decimal.Decimal `json:"materials_cost"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	OverheadPct   decimal.Decimal `json:"overhead_pct"`
	OverheadValue decimal.Decimal `json:"overhead_value"`
	CostTotal     decimal.Decimal `json:"cost_total"`
	SellTotal     decimal.Decimal `json:"sell_total"`
	MarginValue   decimal.Decimal `json:"margin_value"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
}

// DocumentResponse full document for GET endpoints.
type DocumentResponse struct {
	ID             string                `json:"id"`
	ConcernID      string                `json:"concern_id"`
	DocumentType   string                `json:"document_type"`
	Number         string                `json:"number"`
	ClientID       string                `json:"client_id"`
	ClientSnapshot entity.ClientSnapshot `json:"client_snapshot"`
	Locale         string                `json:"locale"`
	Currency       string                `json:"currency"`
	IssueDate      string                `json:"issue_date"`
	DueDate        string                `json:"due_date,omitempty"`
	NoteInternal   string                `json:"note_internal,omitempty"`
	NoteCustomer   string                `json:"note_customer,omitempty"`
	Items          []entity.LineItem     `json:"items"`
	Totals         TotalsResponse        `json:"totals"`
	CalcSummary    *CalcSummaryResponse  `json:"calc_summary,omitempty"`
	State          string                `json:"state"`
	SourceOfferID  string                `json:"source_offer_id,omitempty"`
	SourceOrderID  string                `json:"source_order_id,omitempty"`
	PaymentsTotal  decimal.Decimal       `json:"payments_total"`
	OpenAmount     decimal.Decimal       `json:"open_amount"`
	Overpaid       bool                  `json:"overpaid,omitempty"`
	Version        int64                 `json:"version"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

// TaxKeyResponse one rate table entry for GET /api/tax-keys.
type TaxKeyResponse struct {
	Key           string          `json:"key"`
	RatePct       decimal.Decimal `json:"rate_pct"`
	DescriptionDE string          `json:"description_de,omitempty"`
	DescriptionEN string          `json:"description_en,omitempty"`
}

// IntegrityResponse result of the totals verification/repair operation.
type IntegrityResponse struct {
	ID       string         `json:"id"`
	Match    bool           `json:"match"`
	Repaired bool           `json:"repaired"`
	Fresh    TotalsResponse `json:"fresh_totals"`
}

// SweepResponse result of an overdue sweep run.
type SweepResponse struct {
	FlippedOverdue int `json:"flipped_overdue"`
	FlippedPaid    int `json:"flipped_paid"`
}
