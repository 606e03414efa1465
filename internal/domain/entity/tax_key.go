package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxKey identifies a VAT rate bucket (e.g. "DE19" standard, "DE7" reduced,
// "DE0" exempt), resolved against the concern-level rate table.
type TaxKey struct {
	Key           string
	ConcernID     string
	RatePct       decimal.Decimal // 19 = 19%
	DescriptionDE string
	DescriptionEN string
	UpdatedAt     time.Time
}

// NumberCounter per (concern, documentType, year) sequence record backing the
// numbering authority. Seq is the last used sequence value.
type NumberCounter struct {
	ConcernID    string
	DocumentType DocumentType
	Year         int
	Seq          int64
	UpdatedAt    time.Time
}
