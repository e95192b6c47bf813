package http

import (
	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
)

func toStockRecordResponse(r *entity.StockRecord) dto.StockRecordResponse {
	return dto.StockRecordResponse{
		VariantID: r.VariantID,
		Stock:     r.Stock,
		Reserved:  r.Reserved,
		Status:    r.Status,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:            m.ID,
		VariantID:     m.VariantID,
		ChangeAmount:  m.ChangeAmount,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        string(m.Reason),
		Detail:        m.Detail,
		ActorID:       m.ActorID,
		CreatedAt:     m.CreatedAt,
	}
}

func toStockChangeResponse(c *inventory.StockChange) dto.StockChangeResponse {
	return dto.StockChangeResponse{
		PreviousStock: c.PreviousStock,
		NewStock:      c.NewStock,
		Movement:      toMovementResponse(c.Movement),
	}
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ID:          l.ID,
			VariantID:   l.VariantID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			ProductName: l.ProductNameSnapshot,
		})
	}
	return dto.OrderResponse{
		ID:             o.ID,
		Status:         o.Status,
		UserID:         o.UserID,
		ContactEmail:   o.ContactEmail,
		TotalAmount:    o.TotalAmount,
		Currency:       o.Currency,
		TrackingNumber: o.TrackingNumber,
		CourierName:    o.CourierName,
		Notes:          o.Notes,
		Lines:          lines,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toReturnResponse(r *entity.Return) dto.ReturnResponse {
	return dto.ReturnResponse{
		ID:           r.ID,
		OrderID:      r.OrderID,
		UserID:       r.UserID,
		Reason:       r.Reason,
		Status:       r.Status,
		RefundAmount: r.RefundAmount,
		AdminNotes:   r.AdminNotes,
		RestockedAt:  r.RestockedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toNotificationResponse(n *entity.NotificationIntent) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
