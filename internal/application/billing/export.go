package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
	"github.com/craftbooks/billing-api/internal/infrastructure/datev"
)

// ExportUseCase the DATEV export. A pure read: loads the selected invoices,
// validates them and hands them to the CSV builder. Any error fails the whole
// batch; no partially-correct file is ever produced.
type ExportUseCase struct {
	docRepo              repository.DocumentRepository
	defaultContraAccount string
}

// NewExportUseCase builds the use case.
func NewExportUseCase(docRepo repository.DocumentRepository, defaultContraAccount string) *ExportUseCase {
	return &ExportUseCase{docRepo: docRepo, defaultContraAccount: defaultContraAccount}
}

// ExportDatev serializes the selected invoices into a DATEV Buchungsstapel
// CSV. Only issued, partially paid, overdue or paid invoices are exportable.
func (uc *ExportUseCase) ExportDatev(ctx context.Context, concernID string, in dto.DatevExportRequest) (*dto.DatevExportResponse, error) {
	if len(in.InvoiceIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	invoices := make([]*entity.Document, 0, len(in.InvoiceIDs))
	for _, id := range in.InvoiceIDs {
		doc, err := uc.docRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if doc == nil || doc.DocumentType != entity.DocumentTypeInvoice {
			return nil, domain.ErrNotFound
		}
		if doc.ConcernID != concernID {
			return nil, domain.ErrForbidden
		}
		if !doc.Exportable() {
			return nil, domain.ErrNotExportable
		}
		invoices = append(invoices, doc)
	}

	contra := in.ContraAccount
	if contra == "" {
		contra = uc.defaultContraAccount
	}
	csv, rows, err := datev.BuildBuchungsstapel(invoices, datev.Options{
		ContraAccount:  contra,
		AccountMapping: in.AccountMapping,
		DefaultAccount: in.DefaultAccount,
	})
	if err != nil {
		return nil, err
	}

	return &dto.DatevExportResponse{
		Filename: fmt.Sprintf("EXTF_Buchungsstapel_%s.csv", time.Now().Format("20060102")),
		Rows:     rows,
		CSV:      csv,
	}, nil
}
