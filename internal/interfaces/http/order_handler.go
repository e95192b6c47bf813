package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
)

// OrderHandler maneja transiciones de estado, guía y packing slip de pedidos (back office).
type OrderHandler struct {
	machine *orders.OrderStateMachine
}

// NewOrderHandler construye el handler.
func NewOrderHandler(machine *orders.OrderStateMachine) *OrderHandler {
	return &OrderHandler{machine: machine}
}

// Transition godoc
// @Summary      Cambiar estado de un pedido
// @Description  Cancelar revierte el stock de cada línea en la misma transacción. Repetir el estado actual no tiene efectos.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Order ID"
// @Param        body  body  dto.StatusTransitionRequest  true  "status destino"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/transitions [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	var in dto.StatusTransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.machine.Transition(c.Context(), orders.TransitionInput{
		OrderID: paramID(c),
		Target:  in.Status,
		ActorID: actorID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// SetTracking godoc
// @Summary      Registrar guía de envío
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Order ID"
// @Param        body  body  dto.SetTrackingRequest  true  "tracking_number, courier_name, notes"
// @Success      200   {object}  dto.OrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/tracking [put]
func (h *OrderHandler) SetTracking(c *fiber.Ctx) error {
	var in dto.SetTrackingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.machine.SetTracking(c.Context(), orders.TrackingInput{
		OrderID:        paramID(c),
		TrackingNumber: in.TrackingNumber,
		CourierName:    in.CourierName,
		Notes:          in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Order ID"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.machine.Get(c.Context(), paramID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// PackingSlip godoc
// @Summary      Packing slip en PDF
// @Description  Disponible para pedidos pagados, empacados o enviados.
// @Tags         orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "Order ID"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/packing-slip [get]
func (h *OrderHandler) PackingSlip(c *fiber.Ctx) error {
	id := paramID(c)
	pdf, err := h.machine.PackingSlip(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="packing-slip-%s.pdf"`, id))
	return c.Send(pdf)
}
