// Package calc implements the money and line-item calculator: per-line nets,
// VAT grouping by tax key and the cost/margin summary for offers. All
// functions are pure; rounding is half-up to 2 decimal places at the line
// level and again per VAT group, never on the grand total.
package calc

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// RateTable maps a tax key to its rate. Values greater than 1 are treated as
// percentages (19 = 19%), values up to 1 as fractions (0.19).
type RateTable map[string]decimal.Decimal

var hundred = decimal.NewFromInt(100)

// rateFraction normalizes a rate table entry to a fraction.
func rateFraction(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(hundred)
	}
	return rate
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeTotals computes document totals from line items, the rate table and an
// optional document-level discount percentage. The document discount is applied
// proportionally to each line's net before VAT. An empty item set yields zero
// totals; a negative quantity, price or discount and a duplicate line position
// are rejected with ErrInvalidLineItem; a tax key missing from the table with
// ErrUnknownTaxKey.
func ComputeTotals(items []entity.LineItem, rates RateTable, discountPct decimal.Decimal) (entity.Totals, error) {
	totals := entity.Totals{
		SubtotalNet:          decimal.Zero,
		LineDiscountTotal:    decimal.Zero,
		ItemNetAfterDiscount: decimal.Zero,
		DiscountPct:          discountPct,
		NetByKey:             map[string]decimal.Decimal{},
		VATByKey:             map[string]decimal.Decimal{},
		TotalVAT:             decimal.Zero,
		GrandTotalGross:      decimal.Zero,
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(hundred) {
		return entity.Totals{}, domain.ErrInvalidLineItem
	}
	docFactor := decimal.NewFromInt(1).Sub(discountPct.Div(hundred))

	positions := make(map[int]bool, len(items))
	for _, item := range items {
		// Positions are 1-based and unique within the document.
		if item.Position != 0 {
			if positions[item.Position] {
				return entity.Totals{}, domain.ErrInvalidLineItem
			}
			positions[item.Position] = true
		}
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return entity.Totals{}, domain.ErrInvalidLineItem
		}
		if item.DiscountPct.IsNegative() || item.DiscountPct.GreaterThan(hundred) {
			return entity.Totals{}, domain.ErrInvalidLineItem
		}
		if _, ok := rates[item.TaxKey]; !ok {
			return entity.Totals{}, domain.ErrUnknownTaxKey
		}

		lineNet := round2(item.Quantity.Mul(item.UnitPrice))
		lineDiscount := round2(lineNet.Mul(item.DiscountPct).Div(hundred))
		// Document discount allocated per line, before VAT.
		netAfter := round2(lineNet.Sub(lineDiscount).Mul(docFactor))

		totals.SubtotalNet = totals.SubtotalNet.Add(lineNet)
		totals.LineDiscountTotal = totals.LineDiscountTotal.Add(lineDiscount)
		totals.ItemNetAfterDiscount = totals.ItemNetAfterDiscount.Add(netAfter)
		totals.NetByKey[item.TaxKey] = netByKeyOrZero(totals.NetByKey, item.TaxKey).Add(netAfter)
	}

	for _, key := range sortedKeys(totals.NetByKey) {
		vat := round2(totals.NetByKey[key].Mul(rateFraction(rates[key])))
		totals.VATByKey[key] = vat
		totals.TotalVAT = totals.TotalVAT.Add(vat)
	}
	totals.GrandTotalGross = totals.ItemNetAfterDiscount.Add(totals.TotalVAT)
	return totals, nil
}

// ComputeCalcSummary computes the cost/margin summary for an offer. Lines of
// type "other" split their cost half material, half labor. overheadPct and
// MarginPct are percent values (10 = 10%).
func ComputeCalcSummary(items []entity.LineItem, overheadPct decimal.Decimal) entity.CalcSummary {
	materials := decimal.Zero
	labor := decimal.Zero
	sellTotal := decimal.Zero
	half := decimal.NewFromFloat(0.5)

	for _, item := range items {
		cost := item.UnitCost.Mul(item.Quantity)
		switch item.Type {
		case entity.ItemTypeMaterial:
			materials = materials.Add(cost)
		case entity.ItemTypeLabor:
			labor = labor.Add(cost)
		default:
			materials = materials.Add(cost.Mul(half))
			labor = labor.Add(cost.Mul(half))
		}
		sellTotal = sellTotal.Add(item.SellPrice().Mul(item.Quantity))
	}

	overheadValue := materials.Add(labor).Mul(overheadPct).Div(hundred)
	costTotal := materials.Add(labor).Add(overheadValue)
	marginValue := sellTotal.Sub(costTotal)
	marginPct := decimal.Zero
	if sellTotal.IsPositive() {
		marginPct = marginValue.Div(sellTotal).Mul(hundred)
	}

	return entity.CalcSummary{
		MaterialsCost: round2(materials),
		LaborCost:     round2(labor),
		OverheadPct:   overheadPct,
		OverheadValue: round2(overheadValue),
		CostTotal:     round2(costTotal),
		SellTotal:     round2(sellTotal),
		MarginValue:   round2(marginValue),
		MarginPct:     round2(marginPct),
	}
}

// VerifyTotals recomputes totals for the given inputs and reports whether the
// stored totals still match. Mismatches are data-integrity warnings, not
// errors; callers repair via recomputation.
func VerifyTotals(stored entity.Totals, items []entity.LineItem, rates RateTable, discountPct decimal.Decimal) (fresh entity.Totals, match bool, err error) {
	fresh, err = ComputeTotals(items, rates, discountPct)
	if err != nil {
		return entity.Totals{}, false, err
	}
	match = fresh.ItemNetAfterDiscount.Equal(stored.ItemNetAfterDiscount) &&
		fresh.TotalVAT.Equal(stored.TotalVAT) &&
		fresh.GrandTotalGross.Equal(stored.GrandTotalGross) &&
		vatMapsEqual(fresh.VATByKey, stored.VATByKey)
	return fresh, match, nil
}

func vatMapsEqual(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !v.Equal(bv) {
			return false
		}
	}
	return true
}

func netByKeyOrZero(m map[string]decimal.Decimal, key string) decimal.Decimal {
	if v, ok := m[key]; ok {
		return v
	}
	return decimal.Zero
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
