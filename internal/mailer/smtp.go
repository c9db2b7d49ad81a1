package mailer

import (
	"context"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers email over authenticated SMTP with TLS. It exists for
// deployments without a transactional-provider API key.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	logger   *zap.Logger
}

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(host string, port int, username, password string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Send dials the SMTP server and delivers the message. SMTP has no provider
// message ID, so a locally generated one is returned instead.
func (m *SMTPMailer) Send(_ context.Context, msg Message) (string, error) {
	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(gm); err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	m.logger.Debug("SMTP message delivered", zap.String("message_id", id))
	return id, nil
}
