package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates the commercial document variants.
type DocumentType string

const (
	DocumentTypeOffer   DocumentType = "offer"
	DocumentTypeOrder   DocumentType = "order"
	DocumentTypeInvoice DocumentType = "invoice"
)

// Offer states.
const (
	OfferStateDraft            = "draft"
	OfferStateSent             = "sent"
	OfferStateAccepted         = "accepted"
	OfferStateRejected         = "rejected"
	OfferStateExpired          = "expired"
	OfferStateConvertedToOrder = "converted_to_order" // terminal
)

// Order states.
const (
	OrderStateOpen               = "open"
	OrderStateInProgress         = "in_progress"
	OrderStateConvertedToInvoice = "converted_to_invoice" // terminal
	OrderStateCancelled          = "cancelled"            // terminal, no invoice produced
)

// Invoice states.
const (
	InvoiceStateIssued        = "issued"
	InvoiceStatePartiallyPaid = "partially_paid"
	InvoiceStateOverdue       = "overdue"
	InvoiceStatePaid          = "paid"
	InvoiceStateCancelled     = "cancelled" // terminal, manual
)

// offerTransitions valid manual offer transitions. Conversion to order is done
// by the lifecycle manager, not by a plain state change.
var offerTransitions = map[string][]string{
	OfferStateDraft:    {OfferStateSent},
	OfferStateSent:     {OfferStateAccepted, OfferStateRejected, OfferStateExpired},
	OfferStateAccepted: {OfferStateConvertedToOrder},
}

var orderTransitions = map[string][]string{
	OrderStateOpen:       {OrderStateInProgress, OrderStateConvertedToInvoice, OrderStateCancelled},
	OrderStateInProgress: {OrderStateConvertedToInvoice, OrderStateCancelled},
}

var invoiceTransitions = map[string][]string{
	InvoiceStateIssued:        {InvoiceStatePartiallyPaid, InvoiceStateOverdue, InvoiceStatePaid, InvoiceStateCancelled},
	InvoiceStatePartiallyPaid: {InvoiceStateOverdue, InvoiceStatePaid, InvoiceStateCancelled},
	InvoiceStateOverdue:       {InvoiceStatePartiallyPaid, InvoiceStatePaid, InvoiceStateCancelled},
}

// OfferTransitionValid reports whether an offer may move from one state to another.
func OfferTransitionValid(from, to string) bool { return transitionValid(offerTransitions, from, to) }

// OrderTransitionValid reports whether an order may move from one state to another.
func OrderTransitionValid(from, to string) bool { return transitionValid(orderTransitions, from, to) }

// InvoiceTransitionValid reports whether an invoice may move from one state to another.
// Cancelled and paid invoices never regress.
func InvoiceTransitionValid(from, to string) bool {
	return transitionValid(invoiceTransitions, from, to)
}

func transitionValid(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Document is the shared shape of offers, orders and invoices. Which variant
// fields apply is determined by DocumentType.
type Document struct {
	ID             string
	ConcernID      string
	DocumentType   DocumentType
	Number         string // unique within (concern, documentType)
	ClientID       string
	ClientSnapshot ClientSnapshot
	Locale         string // "de" | "en"
	Currency       string
	IssueDate      time.Time
	DueDate        *time.Time // invoices only
	NoteInternal   string
	NoteCustomer   string
	LineItems      []LineItem
	DiscountPct    decimal.Decimal // document-level discount in percent
	Totals         Totals
	OverheadPct    decimal.Decimal // offers only
	CalcSummary    *CalcSummary    // offers only
	State          string

	SourceOfferID string // orders: offer this order was converted from
	SourceOrderID string // invoices: order this invoice was converted from

	PaymentsTotal decimal.Decimal // invoices, derived from the payment ledger
	OpenAmount    decimal.Decimal // invoices, derived: max(0, gross - payments)
	Overpaid      bool            // invoices, Σ payments > gross (clamped, flagged)

	Version   int64 // optimistic concurrency
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Editable reports whether line items, discount and overhead may still be
// changed. Converted and issued documents are locked.
func (d *Document) Editable() bool {
	switch d.DocumentType {
	case DocumentTypeOffer:
		return d.State == OfferStateDraft || d.State == OfferStateSent
	case DocumentTypeOrder:
		return d.State == OrderStateOpen || d.State == OrderStateInProgress
	default:
		return false
	}
}

// Convertible reports whether the document may be converted into its successor.
func (d *Document) Convertible() bool {
	switch d.DocumentType {
	case DocumentTypeOffer:
		return d.State == OfferStateAccepted
	case DocumentTypeOrder:
		return d.State == OrderStateOpen || d.State == OrderStateInProgress
	default:
		return false
	}
}

// Exportable reports whether an invoice may appear in a DATEV export.
func (d *Document) Exportable() bool {
	if d.DocumentType != DocumentTypeInvoice {
		return false
	}
	switch d.State {
	case InvoiceStateIssued, InvoiceStatePartiallyPaid, InvoiceStateOverdue, InvoiceStatePaid:
		return true
	}
	return false
}
