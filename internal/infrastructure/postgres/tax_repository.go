package postgres

import (
	"context"
	"fmt"

	"github.com/craftbooks/billing-api/internal/domain/calc"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

var _ repository.TaxRepository = (*TaxRepo)(nil)

// TaxRepo read-only TaxRepository implementation over the concern-level
// tax_keys table.
type TaxRepo struct {
	q Querier
}

// NewTaxRepository builds the adapter. Pass a pool or tx (Querier).
func NewTaxRepository(q Querier) *TaxRepo {
	return &TaxRepo{q: q}
}

// RateTable returns the taxKey -> rate (percent) mapping for the concern.
func (r *TaxRepo) RateTable(concernID string) (calc.RateTable, error) {
	keys, err := r.ListByConcern(concernID)
	if err != nil {
		return nil, err
	}
	table := make(calc.RateTable, len(keys))
	for _, k := range keys {
		table[k.Key] = k.RatePct
	}
	return table, nil
}

// ListByConcern lists the full tax key records for the concern.
func (r *TaxRepo) ListByConcern(concernID string) ([]*entity.TaxKey, error) {
	query := `
		SELECT key, concern_id, rate_pct,
		       COALESCE(description_de, ''), COALESCE(description_en, ''), updated_at
		FROM tax_keys WHERE concern_id = $1 ORDER BY key`
	rows, err := r.q.Query(context.Background(), query, concernID)
	if err != nil {
		return nil, fmt.Errorf("list tax keys: %w", err)
	}
	defer rows.Close()
	var list []*entity.TaxKey
	for rows.Next() {
		var k entity.TaxKey
		if err := rows.Scan(&k.Key, &k.ConcernID, &k.RatePct, &k.DescriptionDE, &k.DescriptionEN, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tax key: %w", err)
		}
		list = append(list, &k)
	}
	return list, rows.Err()
}
