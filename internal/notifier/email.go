package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"github.com/Md-Rabbi-95/Khalab/internal/config"
	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

// Mailer sends the storefront's transactional mail over SMTP. Every
// failure is logged and swallowed; a committed order never depends on
// the mail server being up.
type Mailer struct {
	cfg       config.SMTPConfig
	storeName string
}

func NewMailer(cfg config.SMTPConfig, storeName string) *Mailer {
	return &Mailer{cfg: cfg, storeName: storeName}
}

func (m *Mailer) send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("notifier: invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notifier: invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("notifier: failed to build smtp client: %w", err)
	}

	return client.DialAndSend(msg)
}

func (m *Mailer) NotifyOrderConfirmed(_ context.Context, o *order.Order, p *order.Payment) {
	if m.cfg.Host == "" || o.Email == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", o.FullName())
	fmt.Fprintf(&b, "Thank you for your order. Your order number is %s.\n\n", o.OrderNumber)
	fmt.Fprintf(&b, "Order total: %s\n", o.OrderTotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery charge: %s\n", o.DeliveryCharge.StringFixed(2))
	fmt.Fprintf(&b, "Payment method: %s\n", p.Method)
	if p.IsOnline() {
		fmt.Fprintf(&b, "Amount paid: %s (transaction %s)\n", p.AmountPaid.StringFixed(2), p.TransactionID)
	}
	fmt.Fprintf(&b, "\nDelivery address: %s, %s\n\n", o.FullAddress(), o.District)
	fmt.Fprintf(&b, "Regards,\n%s\n", m.storeName)

	subject := fmt.Sprintf("%s order %s confirmed", m.storeName, o.OrderNumber)
	if err := m.send(o.Email, subject, b.String()); err != nil {
		log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("failed to send order confirmation email")
	}
}

func (m *Mailer) NotifyStatusChanged(_ context.Context, o *order.Order) {
	if m.cfg.Host == "" || o.Email == "" {
		return
	}

	body := fmt.Sprintf("Dear %s,\n\nYour order %s is now %s.\n\nRegards,\n%s\n",
		o.FullName(), o.OrderNumber, o.Status, m.storeName)
	subject := fmt.Sprintf("%s order %s update", m.storeName, o.OrderNumber)
	if err := m.send(o.Email, subject, body); err != nil {
		log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("failed to send order status email")
	}
}

// Noop satisfies order.Notifier for tests and mail-less deployments.
type Noop struct{}

func (Noop) NotifyOrderConfirmed(context.Context, *order.Order, *order.Payment) {}

func (Noop) NotifyStatusChanged(context.Context, *order.Order) {}
