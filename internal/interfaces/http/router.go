package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	MovementUC *inventory.MovementUseCase
	TransferUC *inventory.TransferUseCase
	StockUC    *inventory.StockUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Todo lo demás requiere Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (catálogo)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.Get)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", RequireRole("admin"), productHandler.Delete)

	// Locations
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", RequireRole("admin"), locationHandler.Create)
	locations.Get("/", locationHandler.List)

	// Inventory: movimientos del libro
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MovementUC, deps.ProductUC)
	invGroup.Post("/purchases", inventoryHandler.CreatePurchase)
	invGroup.Put("/purchases/:id", RequireRole("admin"), inventoryHandler.UpdatePurchase)
	invGroup.Delete("/purchases/:id", RequireRole("admin"), inventoryHandler.DeletePurchase)
	invGroup.Post("/sales", inventoryHandler.CreateSale)
	invGroup.Put("/sales/:id", RequireRole("admin"), inventoryHandler.UpdateSale)
	invGroup.Delete("/sales/:id", RequireRole("admin"), inventoryHandler.DeleteSale)
	invGroup.Post("/adjustments", inventoryHandler.CreateAdjustment)
	invGroup.Post("/supplier-returns", inventoryHandler.CreateSupplierReturn)
	invGroup.Get("/movements", inventoryHandler.History)
	invGroup.Get("/movements/:id", inventoryHandler.GetMovement)

	// Inventory: proyección de stock
	stockHandler := NewStockHandler(deps.StockUC)
	invGroup.Get("/stock", stockHandler.List)
	invGroup.Get("/stock/:sku", stockHandler.GetBySKU)

	// Transfers entre ubicaciones
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Put("/:movement_id", RequireRole("admin"), transferHandler.UpdateLine)
	transfers.Delete("/:movement_id", RequireRole("admin"), transferHandler.DeleteLine)
}
