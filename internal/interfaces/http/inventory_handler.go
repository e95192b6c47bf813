package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

// InventoryHandler maneja ajustes de stock e historial del ledger (back office).
type InventoryHandler struct {
	ledger *inventory.StockLedger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.StockLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// Adjust godoc
// @Summary      Ajustar stock de una variante
// @Description  Aplica un delta firmado o fija un valor absoluto. Registra un movimiento en el ledger.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Variant ID"
// @Param        body  body  dto.AdjustStockRequest  true  "delta o absolute, reason, detail"
// @Success      201   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id}/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if (in.Delta == nil) == (in.Absolute == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "indique delta o absolute, no ambos"})
	}
	reason := entity.MovementReason(in.Reason)
	if reason == "" {
		reason = entity.ReasonManualAdjustment
	}
	// Los tags de sistema solo los emiten las transiciones de pedido y devolución
	if !reason.Valid() || reason.SystemTriggered() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reason inválido"})
	}

	var (
		change *inventory.StockChange
		err    error
	)
	if in.Delta != nil {
		change, err = h.ledger.ApplyDelta(c.Context(), inventory.AdjustInput{
			VariantID: paramID(c),
			Delta:     *in.Delta,
			Reason:    reason,
			Detail:    in.Detail,
			ActorID:   actorID(c),
		})
	} else {
		change, err = h.ledger.SetAbsolute(c.Context(), inventory.AbsoluteInput{
			VariantID: paramID(c),
			NewStock:  *in.Absolute,
			Reason:    reason,
			Detail:    in.Detail,
			ActorID:   actorID(c),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockChangeResponse(change))
}

// History godoc
// @Summary      Historial de movimientos de una variante
// @Description  Del más reciente al más antiguo. limit se acota al máximo configurado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "Variant ID"
// @Param        limit  query  int     false  "Máximo de movimientos (default 50)"
// @Success      200  {object}  dto.StockHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id}/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	variantID := paramID(c)
	limit := c.QueryInt("limit", 50)

	items := make([]dto.StockMovementResponse, 0)
	for m, err := range h.ledger.History(c.Context(), variantID, limit) {
		if err != nil {
			return writeError(c, err)
		}
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.StockHistoryResponse{VariantID: variantID, Items: items})
}

// Get godoc
// @Summary      Registro de stock de una variante
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Variant ID"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	rec, err := h.ledger.Get(c.Context(), paramID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockRecordResponse(rec))
}

// Provision godoc
// @Summary      Aprovisionar una variante en el ledger
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Variant ID"
// @Param        body  body  dto.ProvisionVariantRequest  true  "initial_stock"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id} [post]
func (h *InventoryHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionVariantRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, err := h.ledger.Provision(c.Context(), paramID(c), in.InitialStock, actorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockRecordResponse(rec))
}

// Archive godoc
// @Summary      Archivar una variante
// @Description  Bloquea ajustes manuales; las reversiones por cancelación y devolución siguen aplicando.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Variant ID"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id}/archive [post]
func (h *InventoryHandler) Archive(c *fiber.Ctx) error {
	rec, err := h.ledger.Archive(c.Context(), paramID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockRecordResponse(rec))
}

// Reconcile godoc
// @Summary      Conciliar stock contra el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Variant ID"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/variants/{id}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	r, err := h.ledger.Reconcile(c.Context(), paramID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconciliationResponse{
		VariantID: r.VariantID,
		Stock:     r.Stock,
		LedgerSum: r.LedgerSum,
		Drift:     r.Drift,
	})
}
