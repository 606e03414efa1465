package datev_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/infrastructure/datev"
)

func testInvoice() *entity.Document {
	return &entity.Document{
		ID:           "inv-1",
		DocumentType: entity.DocumentTypeInvoice,
		Number:       "RE-2025-00042",
		ClientSnapshot: entity.ClientSnapshot{
			Name: "Tischlerei Brandt GmbH",
		},
		IssueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		State:     entity.InvoiceStateIssued,
		Totals: entity.Totals{
			NetByKey: map[string]decimal.Decimal{
				"DE19": decimal.NewFromInt(200),
				"DE7":  decimal.NewFromInt(50),
			},
			VATByKey: map[string]decimal.Decimal{
				"DE19": decimal.NewFromInt(38),
				"DE7":  decimal.NewFromFloat(3.50),
			},
			GrandTotalGross: decimal.NewFromFloat(291.50),
		},
	}
}

func testOptions() datev.Options {
	return datev.Options{
		ContraAccount: "10000",
		AccountMapping: map[string]string{
			"DE19": "8400",
			"DE7":  "8300",
		},
	}
}

// TestBuildBuchungsstapel_GoldenOutput pins the batch byte for byte: EXTF
// header, column line, then one row per VAT group in sorted key order.
func TestBuildBuchungsstapel_GoldenOutput(t *testing.T) {
	csv, rows, err := datev.BuildBuchungsstapel([]*entity.Document{testInvoice()}, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	want := `"EXTF";"510";"21";"Buchungsstapel";"1"` + "\n" +
		`"Umsatz (ohne Soll/Haben-Kz)";"Soll/Haben-Kennzeichen";"Konto";"Gegenkonto (ohne BU-Schlüssel)";"Belegdatum";"Belegfeld 1";"Buchungstext"` + "\n" +
		`"238.00";"S";"8400";"10000";"10.03.2025";"RE-2025-00042";"Tischlerei Brandt GmbH"` + "\n" +
		`"53.50";"S";"8300";"10000";"10.03.2025";"RE-2025-00042";"Tischlerei Brandt GmbH"` + "\n"
	assert.Equal(t, want, csv)
}

// TestBuildBuchungsstapel_GroupGrossSumsToInvoiceGross the per-group gross
// amounts reassemble the invoice total exactly.
func TestBuildBuchungsstapel_GroupGrossSumsToInvoiceGross(t *testing.T) {
	inv := testInvoice()
	csv, _, err := datev.BuildBuchungsstapel([]*entity.Document{inv}, testOptions())
	require.NoError(t, err)

	sum := decimal.Zero
	for _, line := range strings.Split(csv, "\n")[2:] {
		if line == "" {
			continue
		}
		amount := strings.Trim(strings.SplitN(line, ";", 2)[0], `"`)
		d, err := decimal.NewFromString(amount)
		require.NoError(t, err)
		sum = sum.Add(d)
	}
	assert.True(t, sum.Equal(inv.Totals.GrandTotalGross), "sum %s vs gross %s", sum, inv.Totals.GrandTotalGross)
}

// TestBuildBuchungsstapel_UnmappedTaxKey no mapping and no default fails the
// whole batch with no partial output.
func TestBuildBuchungsstapel_UnmappedTaxKey(t *testing.T) {
	opts := testOptions()
	delete(opts.AccountMapping, "DE7")

	csv, rows, err := datev.BuildBuchungsstapel([]*entity.Document{testInvoice()}, opts)
	assert.ErrorIs(t, err, domain.ErrUnmappedTaxKey)
	assert.Empty(t, csv)
	assert.Zero(t, rows)
}

func TestBuildBuchungsstapel_DefaultAccountFallback(t *testing.T) {
	opts := testOptions()
	delete(opts.AccountMapping, "DE7")
	opts.DefaultAccount = "8999"

	csv, rows, err := datev.BuildBuchungsstapel([]*entity.Document{testInvoice()}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Contains(t, csv, `"53.50";"S";"8999";"10000"`)
}

func TestBuildBuchungsstapel_EmptyBatch(t *testing.T) {
	csv, rows, err := datev.BuildBuchungsstapel(nil, testOptions())
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Equal(t, 2, len(strings.Split(strings.TrimRight(csv, "\n"), "\n")),
		"header and column line only")
}

func TestBuildBuchungsstapel_SanitizesFields(t *testing.T) {
	inv := testInvoice()
	inv.ClientSnapshot.Name = `Müller; "Söhne"` + "\n" + `KG 日本`

	csv, _, err := datev.BuildBuchungsstapel([]*entity.Document{inv}, testOptions())
	require.NoError(t, err)

	assert.Contains(t, csv, `"Müller  Söhne KG ??"`, "umlauts survive, CJK is replaced, separators stripped")
}

func TestBuildBuchungsstapel_TruncatesLongClientName(t *testing.T) {
	inv := testInvoice()
	inv.ClientSnapshot.Name = strings.Repeat("A", 80)

	csv, _, err := datev.BuildBuchungsstapel([]*entity.Document{inv}, testOptions())
	require.NoError(t, err)
	assert.Contains(t, csv, `"`+strings.Repeat("A", 60)+`"`)
	assert.NotContains(t, csv, strings.Repeat("A", 61))
}
