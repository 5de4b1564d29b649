package bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the unit of asynchronous communication: a payload published
// to a topic exchange under a routing key. Envelopes are ephemeral; they
// exist between a Publish call and the consumer's ack or reject.
type Envelope struct {
	ID          string         `json:"id"`
	Exchange    string         `json:"exchange"`
	RoutingKey  string         `json:"routingKey"`
	Payload     map[string]any `json:"payload"`
	Persistent  bool           `json:"persistent"`
	PublishedAt time.Time      `json:"publishedAt"`
}

// NewEnvelope builds a persistent envelope stamped with the publish time.
func NewEnvelope(exchange, routingKey string, payload map[string]any) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		Exchange:    exchange,
		RoutingKey:  routingKey,
		Payload:     payload,
		Persistent:  true,
		PublishedAt: time.Now().UTC(),
	}
}

// Encode serializes the envelope body for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses an envelope body read from a queue.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
