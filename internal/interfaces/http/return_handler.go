package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/application/returns"
)

// ReturnHandler maneja solicitudes de devolución (cliente) y su revisión (back office).
type ReturnHandler struct {
	workflow *returns.ReturnWorkflow
}

// NewReturnHandler construye el handler.
func NewReturnHandler(workflow *returns.ReturnWorkflow) *ReturnHandler {
	return &ReturnHandler{workflow: workflow}
}

// File godoc
// @Summary      Solicitar devolución de un pedido
// @Description  Solo el dueño de un pedido entregado, dentro de la ventana de devolución.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Order ID"
// @Param        body  body  dto.FileReturnRequest  true  "reason"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/returns [post]
func (h *ReturnHandler) File(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FileReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ret, err := h.workflow.FileReturn(c.Context(), returns.FileInput{
		OrderID: paramID(c),
		UserID:  userID,
		Reason:  in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReturnResponse(ret))
}

// Transition godoc
// @Summary      Cambiar estado de una devolución
// @Description  received lleva el pedido a returned; refunded lo lleva a refunded.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Return ID"
// @Param        body  body  dto.ReturnTransitionRequest  true  "status, notes, refund_amount (solo al aprobar)"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/transitions [post]
func (h *ReturnHandler) Transition(c *fiber.Ctx) error {
	var in dto.ReturnTransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ret, err := h.workflow.Transition(c.Context(), returns.TransitionInput{
		ReturnID:     paramID(c),
		Target:       in.Status,
		Notes:        in.Notes,
		RefundAmount: in.RefundAmount,
		ActorID:      actorID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

// Restock godoc
// @Summary      Reingresar al stock las unidades devueltas
// @Description  Una sola vez por devolución, después de recibirla.
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Return ID"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/restock [post]
func (h *ReturnHandler) Restock(c *fiber.Ctx) error {
	ret, err := h.workflow.Restock(c.Context(), paramID(c), actorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

// GetByID godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Return ID"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	ret, err := h.workflow.Get(c.Context(), paramID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}
