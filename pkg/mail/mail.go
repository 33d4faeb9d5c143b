// Package mail provides a fluent SMTP mailer.
//
//	err := mail.To("printer@example.com").
//	    From("Snapkeep", "hello@snapkeep.co").
//	    Subject("Images ready for print").
//	    Body("<h1>Ready</h1>").
//	    Send(smtpCfg)
package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTP holds the transport credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Message is a fluent builder for an email.
type Message struct {
	to       []string
	from     string
	fromName string
	subject  string
	body     string
	isHTML   bool
}

// To starts a message to the given recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses, isHTML: true}
}

// From sets the sender display name and address.
func (m *Message) From(name, address string) *Message {
	m.fromName = name
	m.from = address
	return m
}

// Subject sets the email subject.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Body sets an HTML body.
func (m *Message) Body(html string) *Message {
	m.body = html
	m.isHTML = true
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	m.isHTML = false
	return m
}

// Send delivers the email over the given SMTP transport. Port 465 uses
// implicit TLS; anything else goes through STARTTLS via smtp.SendMail.
func (m *Message) Send(cfg SMTP) error {
	if cfg.Host == "" {
		return fmt.Errorf("mail: SMTP host not configured")
	}
	if len(m.to) == 0 {
		return fmt.Errorf("mail: no recipients")
	}

	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}
	raw := m.buildRaw(from)

	addr := cfg.Host + ":" + cfg.Port
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if cfg.Port == "465" {
		return m.sendTLS(addr, auth, raw, cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.from, m.to, raw)
}

func (m *Message) sendTLS(addr string, auth smtp.Auth, raw []byte, host string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	for _, rcpt := range m.to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(raw)
	return err
}

func (m *Message) buildRaw(from string) []byte {
	contentType := "text/plain"
	if m.isHTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.to, ", ") + "\r\n")
	b.WriteString("Subject: " + m.subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(m.body)
	return []byte(b.String())
}
