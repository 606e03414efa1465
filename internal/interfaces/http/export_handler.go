package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// ExportHandler handles DATEV export and tax-key configuration requests (protected).
type ExportHandler struct {
	uc      *billing.ExportUseCase
	taxRepo repository.TaxRepository
}

// NewExportHandler builds the handler.
func NewExportHandler(uc *billing.ExportUseCase, taxRepo repository.TaxRepository) *ExportHandler {
	return &ExportHandler{uc: uc, taxRepo: taxRepo}
}

// ExportDatev serializes selected invoices into a DATEV Buchungsstapel CSV.
// POST /api/exports/datev
func (h *ExportHandler) ExportDatev(c *fiber.Ctx) error {
	var in dto.DatevExportRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	res, err := h.uc.ExportDatev(c.Context(), GetConcernID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ListTaxKeys returns the concern's tax-key rate table (read-only).
// GET /api/tax-keys
func (h *ExportHandler) ListTaxKeys(c *fiber.Ctx) error {
	keys, err := h.taxRepo.ListByConcern(GetConcernID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TaxKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.TaxKeyResponse{
			Key:           k.Key,
			RatePct:       k.RatePct,
			DescriptionDE: k.DescriptionDE,
			DescriptionEN: k.DescriptionEN,
		})
	}
	return c.JSON(out)
}
