package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/internal/packaging"
	"github.com/snapkeep/printworks/pkg/mail"
)

// Mailer delivers one rendered email. Satisfied by SMTPMailer in production
// and by fakes in tests.
type Mailer interface {
	Send(to, fromName, from, subject, htmlBody string) error
}

// SMTPMailer sends via the shared SMTP transport.
type SMTPMailer struct {
	SMTP config.SMTP
}

func (m *SMTPMailer) Send(to, fromName, from, subject, htmlBody string) error {
	return mail.To(to).
		From(fromName, from).
		Subject(subject).
		Body(htmlBody).
		Send(mail.SMTP{
			Host:     m.SMTP.Host,
			Port:     m.SMTP.Port,
			Username: m.SMTP.Username,
			Password: m.SMTP.Password,
		})
}

// EmailChannel renders the printer notification email with the user block,
// shipping address, and the package link.
type EmailChannel struct {
	cfg      config.EmailChannel
	fromName string
	mailer   Mailer
	log      *slog.Logger
}

// NewEmailChannel builds the email print channel.
func NewEmailChannel(cfg config.EmailChannel, fromName string, mailer Mailer, log *slog.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, fromName: fromName, mailer: mailer, log: log}
}

// Send renders and delivers the email for one order.
func (c *EmailChannel) Send(_ context.Context, user *model.User, order *model.Order) error {
	start := order.StartDate.Format("02-01-2006")
	end := order.EndDate.Format("02-01-2006")

	subject := fmt.Sprintf("Images ready for print for %s - %s", user.Username, start)

	var b strings.Builder
	fmt.Fprintf(&b, "Images are ready to print for %s for the period from %s to %s<br><br>",
		user.Username, start, end)
	b.WriteString(packaging.UserBlock(user, "<br>"))
	b.WriteString(packaging.AddressBlock(order.Address, "<br>") + "<br><br>")
	b.WriteString("<strong>Image set</strong>:<br>")
	fmt.Fprintf(&b, `<a href="%s">%s</a>`, order.PackageURL, order.PackageURL)

	c.log.Info("sending printer email",
		"to", c.cfg.To, "from", c.cfg.From, "user", user.Username)

	return c.mailer.Send(c.cfg.To, c.fromName, c.cfg.From, subject, b.String())
}
