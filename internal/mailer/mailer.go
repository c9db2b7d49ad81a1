// Package mailer delivers outbound transactional email. The Mailer
// interface hides the concrete provider; the server wires either the Resend
// HTTPS API client or an SMTP client depending on configuration.
package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer sends a message and returns the provider's message ID.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
