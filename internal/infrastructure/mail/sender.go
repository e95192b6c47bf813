// Package mail envía los correos transaccionales (pedido enviado).
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/fulfillment-api/internal/application/ports"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/pkg/config"
	"github.com/jhoicas/fulfillment-api/pkg/logger"
)

var (
	_ ports.EmailSender = (*SMTPSender)(nil)
	_ ports.EmailSender = (*LogSender)(nil)
)

// Dialer es la parte de *gomail.Dialer que usa el sender.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender envía correos por SMTP con gomail.
type SMTPSender struct {
	dialer Dialer
	from   string
}

// NewSMTPSender construye el sender desde la configuración SMTP.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// NewSMTPSenderWithDialer permite inyectar el dialer (tests).
func NewSMTPSenderWithDialer(d Dialer, from string) *SMTPSender {
	return &SMTPSender{dialer: d, from: from}
}

// Send arma el mensaje HTML y lo entrega. gomail no acepta contexto; se respeta
// solo la cancelación previa al envío.
func (s *SMTPSender) Send(ctx context.Context, email *entity.EmailIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("X-Order-ID", email.OrderID)
	m.SetBody("text/html", email.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email %s to %s: %w", email.Template, email.To, err)
	}
	return nil
}

// LogSender solo registra la intención de envío (sin SMTP configurado).
type LogSender struct {
	log *logger.Logger
}

// NewLogSender construye el sender de solo-log.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Component("mail")}
}

// Send registra el correo que se habría enviado.
func (s *LogSender) Send(_ context.Context, email *entity.EmailIntent) error {
	s.log.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Str("template", email.Template).
		Str("order_id", email.OrderID).
		Msg("correo no enviado: SMTP deshabilitado")
	return nil
}
