package repository

import (
	"github.com/craftbooks/billing-api/internal/domain/calc"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// TaxRepository read-only access to the concern-level tax-key configuration.
type TaxRepository interface {
	// RateTable returns the taxKey -> rate mapping for the concern.
	RateTable(concernID string) (calc.RateTable, error)
	ListByConcern(concernID string) ([]*entity.TaxKey, error)
}
