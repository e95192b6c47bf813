package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
	"github.com/jhoicas/fulfillment-api/internal/application/returns"
	"github.com/jhoicas/fulfillment-api/internal/domain/repository"
	"github.com/jhoicas/fulfillment-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger        *inventory.StockLedger
	Orders        *orders.OrderStateMachine
	Returns       *returns.ReturnWorkflow
	Notifications repository.NotificationRepository
	JWTSecret     string
	AppName       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	backOffice := RequireRole(jwt.RoleAdmin, jwt.RoleStaff)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Inventario (back office)
	inv := protected.Group("/inventory/variants")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv.Get("/:id", backOffice, inventoryHandler.Get)
	inv.Post("/:id", adminOnly, inventoryHandler.Provision)
	inv.Post("/:id/adjustments", backOffice, inventoryHandler.Adjust)
	inv.Get("/:id/movements", backOffice, inventoryHandler.History)
	inv.Get("/:id/reconciliation", backOffice, inventoryHandler.Reconcile)
	inv.Post("/:id/archive", adminOnly, inventoryHandler.Archive)

	// Pedidos
	ord := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders)
	returnHandler := NewReturnHandler(deps.Returns)
	ord.Get("/:id", backOffice, orderHandler.GetByID)
	ord.Post("/:id/transitions", backOffice, orderHandler.Transition)
	ord.Put("/:id/tracking", backOffice, orderHandler.SetTracking)
	ord.Get("/:id/packing-slip", backOffice, orderHandler.PackingSlip)
	ord.Post("/:id/returns", RequireRole(jwt.RoleCustomer), returnHandler.File)

	// Devoluciones (back office)
	ret := protected.Group("/returns")
	ret.Get("/:id", backOffice, returnHandler.GetByID)
	ret.Post("/:id/transitions", backOffice, returnHandler.Transition)
	ret.Post("/:id/restock", backOffice, returnHandler.Restock)

	// Notificaciones del usuario autenticado
	me := protected.Group("/me")
	notificationHandler := NewNotificationHandler(deps.Notifications)
	me.Get("/notifications", notificationHandler.ListMine)
}

// paramID copia el parámetro :id. Fiber devuelve strings sobre el buffer de fasthttp,
// que se reutiliza en la siguiente petición; los repositorios en memoria los guardan.
func paramID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}
