package entity

import "github.com/shopspring/decimal"

// Totals derived document totals, never hand-edited.
// GrandTotalGross is a straight sum of already-rounded components, so
// GrandTotalGross == ItemNetAfterDiscount + Σ VATByKey holds exactly.
type Totals struct {
	SubtotalNet          decimal.Decimal            `json:"subtotal_net"`            // Σ net line totals pre-discount
	LineDiscountTotal    decimal.Decimal            `json:"line_discount_total"`     // Σ line discounts
	ItemNetAfterDiscount decimal.Decimal            `json:"item_net_after_discount"` // net after line and document discounts
	DiscountPct          decimal.Decimal            `json:"discount_pct"`            // document-level discount in percent
	NetByKey             map[string]decimal.Decimal `json:"net_by_key"`              // taxKey -> rounded group net
	VATByKey             map[string]decimal.Decimal `json:"vat_by_key"`              // taxKey -> rounded VAT amount
	TotalVAT             decimal.Decimal            `json:"total_vat"`
	GrandTotalGross      decimal.Decimal            `json:"grand_total_gross"`
}

// CalcSummary cost/margin figures for offers. Purely informational; never used
// to derive customer-facing totals.
type CalcSummary struct {
	MaterialsCost decimal.Decimal `json:"materials_cost"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	OverheadPct   decimal.Decimal `json:"overhead_pct"`   // percent, e.g. 10 = 10%
	OverheadValue decimal.Decimal `json:"overhead_value"` // (materials+labor) * overheadPct
	CostTotal     decimal.Decimal `json:"cost_total"`     // materials + labor + overhead
	SellTotal     decimal.Decimal `json:"sell_total"`     // Σ unitSell * quantity
	MarginValue   decimal.Decimal `json:"margin_value"`   // sellTotal - costTotal
	MarginPct     decimal.Decimal `json:"margin_pct"`     // percent, 0 when sellTotal is 0
}
