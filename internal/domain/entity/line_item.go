package entity

import "github.com/shopspring/decimal"

// Line item types for the costing summary.
const (
	ItemTypeMaterial = "material"
	ItemTypeLabor    = "labor"
	ItemTypeOther    = "other"
)

// LineItem represents one position of a commercial document.
// Position is 1-based, unique within the document and defines print order.
type LineItem struct {
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"` // e.g. Stk, Std, m²
	UnitPrice   decimal.Decimal `json:"unit_price"` // net per unit
	TaxKey      string          `json:"tax_key"`
	DiscountPct decimal.Decimal `json:"discount_pct,omitempty"` // line discount in percent
	Type        string          `json:"type,omitempty"`         // material | labor | other
	UnitCost    decimal.Decimal `json:"unit_cost,omitempty"`    // cost basis per unit
	UnitSell    decimal.Decimal `json:"unit_sell,omitempty"`    // selling price, defaults to UnitPrice
	MaterialID  string          `json:"material_id,omitempty"`  // provenance, material library
	PersonnelID string          `json:"personnel_id,omitempty"` // provenance, personnel record
}

// SellPrice selling price per unit; falls back to UnitPrice when UnitSell is unset.
func (li LineItem) SellPrice() decimal.Decimal {
	if li.UnitSell.IsPositive() {
		return li.UnitSell
	}
	return li.UnitPrice
}
