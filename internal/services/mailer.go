package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer delivers operator notifications. Sends are diagnostic, not
// functional: callers log failures and move on.
type Mailer interface {
	Send(ctx context.Context, subject, text string) error
}

// SMTPMailer sends plain-text mail to a fixed operator address.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	operator string
	log      *zap.Logger
}

func NewSMTPMailer(host string, port int, user, pass, from, operator string, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		pass:     pass,
		from:     from,
		operator: operator,
		log:      log,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, text string) error {
	if m.host == "" || m.operator == "" {
		m.log.Info("mailer not configured, notification logged only",
			zap.String("subject", subject),
			zap.String("text", text),
		)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", m.operator)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(text)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	// smtp.SendMail is not context-aware; honor cancellation up front and
	// rely on the server's own timeouts past that point.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{m.operator}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send operator mail: %w", err)
	}
	return nil
}
