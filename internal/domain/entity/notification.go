package entity

import "time"

// Tipos de notificación in-app.
const (
	NotificationTypeOrder  = "order"
	NotificationTypeReturn = "return"
)

// NotificationIntent es la notificación in-app que el core emite; la entrega es externa.
type NotificationIntent struct {
	ID        string
	UserID    *string // nil = broadcast
	Title     string
	Message   string
	Type      string
	Metadata  map[string]any
	CreatedAt time.Time
	IsRead    bool
}

// EmailIntent es la solicitud de envío de correo (solo pedidos enviados).
type EmailIntent struct {
	To       string
	Subject  string
	Body     string
	OrderID  string
	Template string
}
