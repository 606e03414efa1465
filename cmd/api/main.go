package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/craftbooks/billing-api/internal/application/billing"
	"github.com/craftbooks/billing-api/internal/infrastructure/postgres"
	httpRouter "github.com/craftbooks/billing-api/internal/interfaces/http"
	"github.com/craftbooks/billing-api/pkg/config"
	"github.com/craftbooks/billing-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	clientRepo := postgres.NewClientRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	taxRepo := postgres.NewTaxRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	lifecycleUC := billing.NewLifecycleUseCase(txRunner, clientRepo, docRepo, taxRepo, billing.Config{
		OfferPrefix:        cfg.Billing.OfferPrefix,
		OrderPrefix:        cfg.Billing.OrderPrefix,
		InvoicePrefix:      cfg.Billing.InvoicePrefix,
		NetTermsDays:       cfg.Billing.NetTermsDays,
		DefaultOverheadPct: cfg.Billing.DefaultOverheadPct,
	})
	ledgerUC := billing.NewLedgerUseCase(txRunner, docRepo, paymentRepo)
	overdueUC := billing.NewOverdueUseCase(docRepo)
	exportUC := billing.NewExportUseCase(docRepo, cfg.DATEV.DefaultContraAccount)

	// Nightly overdue sweep. The sweep is also exposed over HTTP for manual
	// runs; an empty cron spec disables the schedule.
	var scheduler *cron.Cron
	if cfg.Billing.OverdueCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Billing.OverdueCron, func() {
			res, err := overdueUC.RefreshAll(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("overdue sweep")
				return
			}
			log.Info().
				Int("flipped_overdue", res.FlippedOverdue).
				Int("flipped_paid", res.FlippedPaid).
				Msg("overdue sweep finished")
		})
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Billing.OverdueCron).Msg("overdue cron spec")
		}
		scheduler.Start()
		log.Info().Str("spec", cfg.Billing.OverdueCron).Msg("overdue sweep scheduled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI locally: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CraftBooks Billing API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Lifecycle: lifecycleUC,
		Ledger:    ledgerUC,
		Overdue:   overdueUC,
		Export:    exportUC,
		TaxRepo:   taxRepo,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
