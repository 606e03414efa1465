package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// InvoiceHandler handles invoice and payment ledger requests (protected).
type InvoiceHandler struct {
	lifecycle *billing.LifecycleUseCase
	ledger    *billing.LedgerUseCase
	overdue   *billing.OverdueUseCase
}

// NewInvoiceHandler builds the handler.
func NewInvoiceHandler(lifecycle *billing.LifecycleUseCase, ledger *billing.LedgerUseCase, overdue *billing.OverdueUseCase) *InvoiceHandler {
	return &InvoiceHandler{lifecycle: lifecycle, ledger: ledger, overdue: overdue}
}

// List lists the concern's invoices.
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	invoices, err := h.lifecycle.ListDocuments(c.Context(), GetConcernID(c), entity.DocumentTypeInvoice)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GetByID returns one invoice.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	invoice, err := h.lifecycle.GetDocument(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeInvoice)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// Cancel cancels an invoice manually.
// POST /api/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	invoice, err := h.lifecycle.CancelInvoice(c.Context(), GetConcernID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// RegisterPayment appends a payment to the invoice's ledger.
// POST /api/invoices/:id/payments
func (h *InvoiceHandler) RegisterPayment(c *fiber.Ctx) error {
	var in dto.RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	payment, err := h.ledger.RegisterPayment(c.Context(), GetConcernID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// RegisterAdjustment appends a compensating (negative) ledger entry.
// POST /api/invoices/:id/adjustments
func (h *InvoiceHandler) RegisterAdjustment(c *fiber.Ctx) error {
	var in dto.RegisterAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	payment, err := h.ledger.RegisterAdjustment(c.Context(), GetConcernID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// ListPayments returns the full ledger of an invoice.
// GET /api/invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *fiber.Ctx) error {
	payments, err := h.ledger.ListPayments(c.Context(), GetConcernID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// Recompute verifies an invoice's stored totals and repairs them on request.
// POST /api/invoices/:id/recompute?repair=true
func (h *InvoiceHandler) Recompute(c *fiber.Ctx) error {
	repair := c.QueryBool("repair", false)
	res, err := h.lifecycle.VerifyTotals(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeInvoice, repair)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RefreshOverdue runs the overdue sweep for the concern on demand.
// POST /api/invoices/refresh-overdue
func (h *InvoiceHandler) RefreshOverdue(c *fiber.Ctx) error {
	res, err := h.overdue.Refresh(c.Context(), GetConcernID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RepairConversions heals documents whose source was never marked converted
// (imported data). Idempotent.
// POST /api/maintenance/repair-conversions
func (h *InvoiceHandler) RepairConversions(c *fiber.Ctx) error {
	repaired, err := h.lifecycle.RepairConversions(c.Context(), GetConcernID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"repaired": repaired})
}
