package billing_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

func seedExportableInvoice(t *testing.T, f *fixture, id string) {
	t.Helper()
	seedInvoice(t, f, id, invoiceGross, time.Now().AddDate(0, 0, 14), entity.InvoiceStateIssued)
	stored := f.docs.docs[id]
	stored.Totals.NetByKey = map[string]decimal.Decimal{
		"DE19": decimal.NewFromInt(200),
		"DE7":  decimal.NewFromInt(50),
	}
	stored.Totals.VATByKey = map[string]decimal.Decimal{
		"DE19": decimal.NewFromInt(38),
		"DE7":  decimal.NewFromFloat(3.50),
	}
}

func exportRequest(ids ...string) dto.DatevExportRequest {
	return dto.DatevExportRequest{
		InvoiceIDs: ids,
		AccountMapping: map[string]string{
			"DE19": "8400",
			"DE7":  "8300",
		},
	}
}

func TestExportDatev(t *testing.T) {
	f := newFixture()
	seedExportableInvoice(t, f, "inv-1")
	uc := billing.NewExportUseCase(f.docs, "10000")

	res, err := uc.ExportDatev(context.Background(), testConcern, exportRequest("inv-1"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows, "one row per VAT group")
	assert.True(t, strings.HasPrefix(res.Filename, "EXTF_Buchungsstapel_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".csv"))
	assert.Contains(t, res.CSV, `"10000"`, "contra account falls back to the configured default")
	assert.Contains(t, res.CSV, `"238.00";"S";"8400"`)
}

func TestExportDatev_ExplicitContraAccount(t *testing.T) {
	f := newFixture()
	seedExportableInvoice(t, f, "inv-1")
	uc := billing.NewExportUseCase(f.docs, "10000")

	in := exportRequest("inv-1")
	in.ContraAccount = "12000"
	res, err := uc.ExportDatev(context.Background(), testConcern, in)
	require.NoError(t, err)
	assert.Contains(t, res.CSV, `"12000"`)
	assert.NotContains(t, res.CSV, `"10000"`)
}

func TestExportDatev_RequiresInvoiceIDs(t *testing.T) {
	f := newFixture()
	uc := billing.NewExportUseCase(f.docs, "10000")

	_, err := uc.ExportDatev(context.Background(), testConcern, exportRequest())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExportDatev_UnknownInvoice(t *testing.T) {
	f := newFixture()
	uc := billing.NewExportUseCase(f.docs, "10000")

	_, err := uc.ExportDatev(context.Background(), testConcern, exportRequest("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportDatev_ForeignInvoice(t *testing.T) {
	f := newFixture()
	seedExportableInvoice(t, f, "inv-1")
	f.docs.docs["inv-1"].ConcernID = "concern-other"
	uc := billing.NewExportUseCase(f.docs, "10000")

	_, err := uc.ExportDatev(context.Background(), testConcern, exportRequest("inv-1"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestExportDatev_CancelledInvoiceRejected(t *testing.T) {
	f := newFixture()
	seedExportableInvoice(t, f, "inv-1")
	f.docs.docs["inv-1"].State = entity.InvoiceStateCancelled
	uc := billing.NewExportUseCase(f.docs, "10000")

	_, err := uc.ExportDatev(context.Background(), testConcern, exportRequest("inv-1"))
	assert.ErrorIs(t, err, domain.ErrNotExportable)
}

// TestExportDatev_FailsWholeBatchOnUnmappedKey one bad invoice poisons the
// batch; no CSV is returned.
func TestExportDatev_FailsWholeBatchOnUnmappedKey(t *testing.T) {
	f := newFixture()
	seedExportableInvoice(t, f, "inv-1")
	uc := billing.NewExportUseCase(f.docs, "10000")

	in := exportRequest("inv-1")
	delete(in.AccountMapping, "DE7")
	res, err := uc.ExportDatev(context.Background(), testConcern, in)
	assert.ErrorIs(t, err, domain.ErrUnmappedTaxKey)
	assert.Nil(t, res)
}
