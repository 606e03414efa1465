package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/application/dto"
	"github.com/craftbooks/billing-api/internal/domain/entity"
)

// OfferHandler handles offer requests (protected).
type OfferHandler struct {
	uc *billing.LifecycleUseCase
}

// NewOfferHandler builds the handler.
func NewOfferHandler(uc *billing.LifecycleUseCase) *OfferHandler {
	return &OfferHandler{uc: uc}
}

// Create creates a draft offer.
// POST /api/offers
func (h *OfferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOfferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	offer, err := h.uc.CreateOffer(c.Context(), GetConcernID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

// List lists the concern's offers.
// GET /api/offers
func (h *OfferHandler) List(c *fiber.Ctx) error {
	offers, err := h.uc.ListDocuments(c.Context(), GetConcernID(c), entity.DocumentTypeOffer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offers)
}

// GetByID returns one offer.
// GET /api/offers/:id
func (h *OfferHandler) GetByID(c *fiber.Ctx) error {
	offer, err := h.uc.GetDocument(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeOffer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offer)
}

// Update replaces line items, discount and overhead of an editable offer.
// PUT /api/offers/:id
func (h *OfferHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	offer, err := h.uc.UpdateDocument(c.Context(), GetConcernID(c), c.Params("id"), entity.DocumentTypeOffer, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offer)
}

// SetState performs a manual transition.
// POST /api/offers/:id/send | /accept | /reject | /expire
func (h *OfferHandler) SetState(state string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offer, err := h.uc.SetOfferState(c.Context(), GetConcernID(c), c.Params("id"), state)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(offer)
	}
}

// Convert converts an accepted offer into an order.
// POST /api/offers/:id/convert
func (h *OfferHandler) Convert(c *fiber.Ctx) error {
	order, err := h.uc.ConvertOfferToOrder(c.Context(), GetConcernID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
