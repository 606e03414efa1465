// Package datev serializes invoices into a DATEV Buchungsstapel CSV. The
// column order, delimiter, quoting and date format are fixed by the DATEV
// interchange format and reproduced byte for byte; this is the one place where
// the external contract, not internal taste, dictates the layout.
package datev

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// Field widths from the DATEV record description.
const (
	maxBelegfeldLen    = 36 // Belegfeld 1 (posting reference)
	maxBuchungstextLen = 60 // Buchungstext
)

// headerLine is the fixed EXTF batch header.
const headerLine = `"EXTF";"510";"21";"Buchungsstapel";"1"`

// columnLine names the emitted columns.
const columnLine = `"Umsatz (ohne Soll/Haben-Kz)";"Soll/Haben-Kennzeichen";"Konto";"Gegenkonto (ohne BU-Schlüssel)";"Belegdatum";"Belegfeld 1";"Buchungstext"`

// Options account resolution for one export batch.
type Options struct {
	ContraAccount  string            // debtor collective account, e.g. "10000"
	AccountMapping map[string]string // taxKey -> revenue account
	DefaultAccount string            // optional fallback for unmapped tax keys
}

// BuildBuchungsstapel renders one posting row per (invoice, VAT group): the
// group's gross amount, "S" (debit), the revenue account for the tax key, the
// contra account, the issue date as DD.MM.YYYY, the document number and the
// client name. Tax keys are emitted in sorted order. A tax key without a
// mapping and without a default fails the whole batch with ErrUnmappedTaxKey
// before any output is produced.
func BuildBuchungsstapel(invoices []*entity.Document, opts Options) (string, int, error) {
	var b strings.Builder
	b.WriteString(headerLine)
	b.WriteByte('\n')
	b.WriteString(columnLine)
	b.WriteByte('\n')

	rows := 0
	for _, inv := range invoices {
		keys := make([]string, 0, len(inv.Totals.VATByKey))
		for k := range inv.Totals.VATByKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		bookingDate := inv.IssueDate.Format("02.01.2006")
		reference := sanitizeField(inv.Number, maxBelegfeldLen)
		text := sanitizeField(inv.ClientSnapshot.Name, maxBuchungstextLen)

		for _, key := range keys {
			account, ok := opts.AccountMapping[key]
			if !ok || account == "" {
				account = opts.DefaultAccount
			}
			if account == "" {
				return "", 0, domain.ErrUnmappedTaxKey
			}
			groupGross := inv.Totals.NetByKey[key].Add(inv.Totals.VATByKey[key])

			fields := []string{
				groupGross.StringFixed(2),
				"S",
				account,
				opts.ContraAccount,
				bookingDate,
				reference,
				text,
			}
			for i, f := range fields {
				if i > 0 {
					b.WriteByte(';')
				}
				b.WriteByte('"')
				b.WriteString(f)
				b.WriteByte('"')
			}
			b.WriteByte('\n')
			rows++
		}
	}
	return b.String(), rows, nil
}

// sanitizeField strips characters that would break the format (quotes,
// semicolons, line breaks), replaces anything outside Windows-1252 and
// truncates to the DATEV field width.
func sanitizeField(s string, maxLen int) string {
	s = strings.NewReplacer(`"`, "", ";", " ", "\n", " ", "\r", " ").Replace(s)
	enc := charmap.Windows1252
	var out []rune
	for _, r := range s {
		if _, ok := enc.EncodeRune(r); !ok {
			r = '?'
		}
		out = append(out, r)
		if len(out) == maxLen {
			break
		}
	}
	return strings.TrimSpace(string(out))
}
