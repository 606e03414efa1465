package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	Lifecycle *billing.LifecycleUseCase
	Ledger    *billing.LedgerUseCase
	Overdue   *billing.OverdueUseCase
	Export    *billing.ExportUseCase
	TaxRepo   repository.TaxRepository
	JWTSecret string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Offers
	offers := api.Group("/offers")
	offerHandler := NewOfferHandler(deps.Lifecycle)
	offers.Post("/", offerHandler.Create)
	offers.Get("/", offerHandler.List)
	offers.Get("/:id", offerHandler.GetByID)
	offers.Put("/:id", offerHandler.Update)
	offers.Post("/:id/send", offerHandler.SetState(entity.OfferStateSent))
	offers.Post("/:id/accept", offerHandler.SetState(entity.OfferStateAccepted))
	offers.Post("/:id/reject", offerHandler.SetState(entity.OfferStateRejected))
	offers.Post("/:id/expire", offerHandler.SetState(entity.OfferStateExpired))
	offers.Post("/:id/convert", offerHandler.Convert)

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Lifecycle)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Put("/:id", orderHandler.Update)
	orders.Post("/:id/start", orderHandler.SetState(entity.OrderStateInProgress))
	orders.Post("/:id/cancel", orderHandler.SetState(entity.OrderStateCancelled))
	orders.Post("/:id/convert", orderHandler.Convert)

	// Invoices and payment ledger
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Lifecycle, deps.Ledger, deps.Overdue)
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/refresh-overdue", invoiceHandler.RefreshOverdue)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/cancel", invoiceHandler.Cancel)
	invoices.Post("/:id/payments", invoiceHandler.RegisterPayment)
	invoices.Get("/:id/payments", invoiceHandler.ListPayments)
	invoices.Post("/:id/adjustments", invoiceHandler.RegisterAdjustment)
	invoices.Post("/:id/recompute", invoiceHandler.Recompute)

	// Maintenance
	api.Post("/maintenance/repair-conversions", invoiceHandler.RepairConversions)

	// Exports and tax configuration
	exportHandler := NewExportHandler(deps.Export, deps.TaxRepo)
	api.Post("/exports/datev", exportHandler.ExportDatev)
	api.Get("/tax-keys", exportHandler.ListTaxKeys)
}
