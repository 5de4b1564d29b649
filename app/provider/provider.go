package provider

import "context"

// EmailProvider performs the actual send through an external transport
// and returns the transport's message identifier.
type EmailProvider interface {
	SendRaw(ctx context.Context, recipient string, raw []byte) (string, error)
}
