package provider

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/google/uuid"
)

type SMTPProvider struct {
	host   string
	port   string
	auth   smtp.Auth
	source string
}

// NewSMTPProvider builds a provider that sends raw MIME email through an
// SMTP relay. Auth is used only when a username is configured; local
// relays like mailhog accept unauthenticated sends.
func NewSMTPProvider(host, port, username, password, source string) *SMTPProvider {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPProvider{host: host, port: port, auth: auth, source: source}
}

// SendRaw submits the raw message to the relay. The relay does not hand
// back an identifier, so one is generated for the delivery record.
func (p *SMTPProvider) SendRaw(_ context.Context, recipient string, raw []byte) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("raw content is required")
	}

	addr := net.JoinHostPort(p.host, p.port)
	if err := smtp.SendMail(addr, p.auth, p.source, []string{recipient}, raw); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", addr, err)
	}

	return uuid.NewString(), nil
}
