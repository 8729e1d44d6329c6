package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/interfaces/ws"
	"github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransactionUC   *inventory.TransactionUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	ProductUC       *usecase.ProductUseCase
	CategoryUC      *usecase.CategoryUseCase
	// Hub es opcional; sin él no se registra /ws/stock.
	Hub *ws.Hub
	// JWTSecret vacío desactiva la autenticación (desarrollo local).
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log))

	// Stream de cambios de stock (público, solo lectura)
	if deps.Hub != nil {
		app.Get("/ws/stock", ws.UpgradeRequired, deps.Hub.Handler())
	}

	api := app.Group("/api")
	auth := deps.JWTSecret != ""
	if auth {
		api.Use(AuthMiddleware(deps.JWTSecret))
	}
	// writers: admin y operator; admins: solo admin. Los viewers solo leen.
	writers := roleGuard(auth, jwt.RoleAdmin, jwt.RoleOperator)
	admins := roleGuard(auth, jwt.RoleAdmin)

	// Categories
	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC, deps.Log)
	categories.Get("/", categoryHandler.List)
	categories.Post("/", writers, categoryHandler.Create)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Put("/:id", writers, categoryHandler.Update)
	categories.Delete("/:id", admins, categoryHandler.Delete)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	txHandler := NewTransactionHandler(deps.TransactionUC, deps.Log)
	products.Get("/", productHandler.List)
	products.Post("/", writers, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", writers, productHandler.Update)
	products.Delete("/:id", admins, productHandler.Delete)
	products.Get("/:id/summary", txHandler.Summary)
	products.Get("/:id/stock-at", txHandler.StockAt)
	products.Get("/:id/transactions", txHandler.ListByProduct)

	// Stock transactions (las rutas fijas antes de /:id)
	transactions := api.Group("/transactions")
	transactions.Get("/", txHandler.List)
	transactions.Post("/", writers, txHandler.Create)
	transactions.Post("/bulk", writers, txHandler.Bulk)
	transactions.Get("/report", txHandler.Report)
	transactions.Get("/date-range", txHandler.ListByDateRange)
	if deps.ReplenishmentUC != nil {
		transactions.Get("/replenishment", NewReplenishmentHandler(deps.ReplenishmentUC, deps.Log).List)
	}
	transactions.Get("/type/:type", txHandler.ListByType)
	transactions.Get("/batch/:batchId", txHandler.ListByBatch)
	transactions.Get("/:id", txHandler.GetByID)
	transactions.Delete("/:id", admins, txHandler.Delete)
}

func roleGuard(enabled bool, roles ...string) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return RequireRole(roles...)
}
