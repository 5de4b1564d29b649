package provider

import (
	"context"

	"github.com/google/uuid"
)

// NoopProvider is a stubbed provider that pretends to send emails.
type NoopProvider struct{}

// NewNoopProvider constructs a no-op email provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// SendRaw returns a generated message ID without sending.
func (p *NoopProvider) SendRaw(_ context.Context, _ string, _ []byte) (string, error) {
	return uuid.NewString(), nil
}
