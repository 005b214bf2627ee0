package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"retailpos-backend/internal/audit"
	"retailpos-backend/internal/auth"
	"retailpos-backend/internal/billing"
	"retailpos-backend/internal/config"
	"retailpos-backend/internal/database"
	"retailpos-backend/internal/inventory"
	"retailpos-backend/internal/logger"
	"retailpos-backend/internal/models"
	"retailpos-backend/internal/notification"
	"retailpos-backend/internal/purchase"
	"retailpos-backend/internal/returns"
	"retailpos-backend/internal/sales"
	"retailpos-backend/internal/shop"
	"retailpos-backend/internal/supplier"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
)

// open bills and purchase drafts idle longer than this are dropped
const workspaceIdle = 12 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if err := database.Init(cfg); err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 6 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))
	app.Use(logger.RequestLogger())

	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	store := billing.GormStore{DB: database.DB}
	checkout := billing.NewCheckout(store, store, store)
	checkout.Alerts = store
	bills := &billing.Handlers{
		Bills:      billing.NewBillRegistry(store.StockLookup),
		Products:   store,
		Checkout:   checkout,
		CodePrefix: shop.InvoiceTagLookup(database.DB),
	}
	purchases := purchase.NewHandlers(cfg.InvoiceRowsPerPage, cfg.LowStockThreshold)

	api := app.Group("/api")

	// public
	api.Post("/auth/register-owner", auth.RegisterOwnerHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/shops/:slug/login", auth.ShopLoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, auth.GormProfileLookup(database.DB)))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/auth/check-role", auth.CheckRoleHandler())

	owner := auth.RequireRole(models.RoleOwner)
	ownerOrManager := auth.RequireRole(models.RoleOwner, models.RoleManager)

	// shop & staff
	protected.Get("/shop", shop.GetHandler())
	protected.Put("/shop", owner, shop.UpdateHandler())
	protected.Get("/staff", ownerOrManager, shop.ListStaffHandler())
	protected.Post("/staff", owner, shop.CreateStaffHandler())
	protected.Put("/staff/:id", owner, shop.UpdateStaffHandler())
	protected.Delete("/staff/:id", owner, shop.DeleteStaffHandler())
	protected.Get("/roles/permissions", owner, shop.PermissionsHandler())
	protected.Get("/roles", ownerOrManager, shop.ListRolesHandler())
	protected.Post("/roles", owner, shop.CreateRoleHandler())
	protected.Put("/roles/:id", owner, shop.UpdateRoleHandler())
	protected.Delete("/roles/:id", owner, shop.DeleteRoleHandler())

	// products
	productsWrite := auth.RequirePermission(auth.PermProductsWrite)
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/categories", inventory.ListCategoriesHandler())
	protected.Put("/products/categories", productsWrite, inventory.RenameCategoryHandler())
	protected.Get("/products/barcode/:code", inventory.BarcodeLookupHandler(store))
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Post("/products", productsWrite, inventory.CreateProductHandler(cfg.LowStockThreshold))
	protected.Put("/products/:id", productsWrite, inventory.UpdateProductHandler())
	protected.Delete("/products/:id", productsWrite, inventory.DeleteProductHandler())
	protected.Get("/units", inventory.ListUnitsHandler())

	// damaged inventory
	inventoryWrite := auth.RequirePermission(auth.PermInventoryWrite)
	protected.Get("/damaged-inventory", inventory.ListDamagedHandler())
	protected.Post("/damaged-inventory", inventoryWrite, inventory.CreateDamagedHandler(store))
	protected.Delete("/damaged-inventory/:id", inventoryWrite, inventory.DeleteDamagedHandler())

	// exports
	protected.Get("/exports/products", auth.RequirePermission(auth.PermReportsRead), inventory.ExportProductsHandler())
	protected.Get("/exports/damaged-inventory", auth.RequirePermission(auth.PermReportsRead), inventory.ExportDamagedHandler())

	// inventory log
	protected.Get("/inventory-logs", ownerOrManager, audit.ListLogsHandler())
	protected.Post("/inventory-logs/:id/undo", ownerOrManager, audit.UndoLogHandler())

	// bill & checkout
	billingGroup := protected.Group("/bill", auth.RequirePermission(auth.PermBilling))
	billingGroup.Get("", bills.Get())
	billingGroup.Post("/items", bills.AddItem())
	billingGroup.Patch("/items/:index", bills.UpdateItem())
	billingGroup.Post("/items/:index/increment", bills.IncrementItem())
	billingGroup.Post("/items/:index/decrement", bills.DecrementItem())
	billingGroup.Delete("/items/:index", bills.RemoveItem())
	billingGroup.Delete("", bills.Clear())
	billingGroup.Post("/checkout", bills.CheckoutBill())

	// transactions & reports
	reportsRead := auth.RequirePermission(auth.PermReportsRead)
	protected.Get("/transactions", sales.ListTransactionsHandler())
	protected.Get("/transactions/export", reportsRead, sales.ExportTransactionsHandler())
	protected.Get("/transactions/:id", sales.GetTransactionHandler())
	protected.Get("/transactions/:id/invoice", sales.InvoiceHandler(cfg.InvoiceRowsPerPage))
	protected.Get("/reports/sales-chart", reportsRead, sales.ChartHandler())
	protected.Get("/reports/summary", reportsRead, sales.SummaryHandler())
	protected.Get("/reports/top-products", reportsRead, sales.TopProductsHandler())

	// returns
	returnsWrite := auth.RequirePermission(auth.PermReturnsWrite)
	protected.Get("/returns", returns.ListHandler())
	protected.Get("/returns/export", reportsRead, returns.ExportHandler())
	protected.Post("/returns", returnsWrite, returns.CreateHandler())
	protected.Patch("/returns/:id/status", returnsWrite, returns.UpdateStatusHandler())

	// suppliers
	suppliersWrite := auth.RequirePermission(auth.PermSuppliersWrite)
	protected.Get("/suppliers", supplier.ListHandler())
	protected.Get("/suppliers/:id", supplier.GetHandler())
	protected.Post("/suppliers", suppliersWrite, supplier.CreateHandler())
	protected.Put("/suppliers/:id", suppliersWrite, supplier.UpdateHandler())
	protected.Delete("/suppliers/:id", suppliersWrite, supplier.DeleteHandler())

	// purchase entries
	pw := protected.Group("/purchases", auth.RequirePermission(auth.PermPurchasesWrite))
	pw.Get("/template", purchases.Template())
	pw.Post("/draft/upload", purchases.UploadDraft())
	pw.Get("/draft", purchases.GetDraft())
	pw.Delete("/draft/:id", purchases.RemoveDraftLine())
	pw.Delete("/draft", purchases.ClearDraft())
	pw.Get("/export", purchases.Export())
	pw.Get("", purchases.List())
	pw.Post("", purchases.Create())
	pw.Get("/:id", purchases.Get())
	pw.Get("/:id/pdf", purchases.PDF())
	pw.Patch("/:id/payment", purchases.UpdatePayment())
	pw.Post("/:id/transfer", purchases.Transfer())

	// notifications
	protected.Get("/notifications", notification.ListHandler())
	protected.Post("/notifications/read-all", notification.MarkAllReadHandler())
	protected.Patch("/notifications/:id/read", notification.MarkReadHandler())

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found: "+c.Method()+" "+c.Path())
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b := bills.Bills.Evict(workspaceIdle)
				d := purchases.Drafts.Evict(workspaceIdle)
				if b+d > 0 {
					log.Info().Int("bills", b).Int("drafts", d).Msg("idle workspaces evicted")
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.HTTPPort).Msg("listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
