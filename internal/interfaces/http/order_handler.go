package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// OrderHandler handles order requests (protected).
type OrderHandler struct {
	uc *billing.LifecycleUseCase
}

// NewOrderHandler builds the handler.
func NewOrderHandler(uc *billing.LifecycleUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// List lists the concern's orders.
// GET /api/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.uc.ListDocuments(c.Context(), GetConcernID(c), entity.DocumentTypeOrder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// GetByID returns one order.
// GET /api/orders/:id
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetDocument(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeOrder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// Update replaces line items and discount of an editable order.
// PUT /api/orders/:id
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	order, err := h.uc.UpdateDocument(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeOrder, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// SetState performs a manual transition.
// POST /api/orders/:id/start | /cancel
func (h *OrderHandler) SetState(state string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := h.uc.SetOrderState(c.Context(), GetConcernID(c), c.Params("id"), state)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	}
}

// Convert converts an order into an issued invoice.
// POST /api/orders/:id/convert
func (h *OrderHandler) Convert(c *fiber.Ctx) error {
	var in dto.ConvertOrderRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	invoice, err := h.uc.ConvertOrderToInvoice(c.Context(), GetConcernID(c), GetUserID(c), c.Params("id"), in.DueDate)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}
