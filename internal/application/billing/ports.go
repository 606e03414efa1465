package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// TxRunner runs a callback with repositories bound to a single store
// transaction. Conversions and ledger writes go through it so the related
// writes commit or roll back together.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docs repository.DocumentRepository,
		payments repository.PaymentRepository,
		counters repository.CounterRepository,
	) error) error
}

// Config tunables for the lifecycle manager, from pkg/config.
type Config struct {
	OfferPrefix        string // e.g. "AN"
	OrderPrefix        string // e.g. "AB"
	InvoicePrefix      string // e.g. "RE"
	NetTermsDays       int    // default due date offset for invoices
	DefaultOverheadPct decimal.Decimal
}
