package dto

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrInvalidRecipient = errors.New("to must be a valid email address")
	ErrMissingSubject   = errors.New("subject is required")
	ErrNoRecipients     = errors.New("recipients must contain at least one address")
)

type SendEmailRequest struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Text     string         `json:"text"`
	HTML     string         `json:"html"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type SendBulkEmailRequest struct {
	Recipients []string       `json:"recipients"`
	Subject    string         `json:"subject"`
	Text       string         `json:"text"`
	HTML       string         `json:"html"`
	Template   string         `json:"template"`
	Data       map[string]any `json:"data"`
}

// SendEmailFromEchoContext binds and normalizes a single-send request.
func SendEmailFromEchoContext(ctx echo.Context) (SendEmailRequest, error) {
	var req SendEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return SendEmailRequest{}, err
	}
	req.normalize()
	return req, nil
}

// SendBulkEmailFromEchoContext binds and normalizes a bulk-send request.
func SendBulkEmailFromEchoContext(ctx echo.Context) (SendBulkEmailRequest, error) {
	var req SendBulkEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return SendBulkEmailRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and address format.
func (r *SendEmailRequest) Validate() error {
	if _, err := mail.ParseAddress(r.To); err != nil {
		return ErrInvalidRecipient
	}
	if r.Subject == "" {
		return ErrMissingSubject
	}
	return nil
}

func (r *SendEmailRequest) normalize() {
	r.To = strings.TrimSpace(r.To)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Template = strings.TrimSpace(r.Template)
}

// Validate checks the recipient list and required fields.
func (r *SendBulkEmailRequest) Validate() error {
	if len(r.Recipients) == 0 {
		return ErrNoRecipients
	}
	for _, recipient := range r.Recipients {
		if _, err := mail.ParseAddress(recipient); err != nil {
			return ErrInvalidRecipient
		}
	}
	if r.Subject == "" {
		return ErrMissingSubject
	}
	return nil
}

func (r *SendBulkEmailRequest) normalize() {
	for i, recipient := range r.Recipients {
		r.Recipients[i] = strings.TrimSpace(recipient)
	}
	r.Subject = strings.TrimSpace(r.Subject)
	r.Template = strings.TrimSpace(r.Template)
}
