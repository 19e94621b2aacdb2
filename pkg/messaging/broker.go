package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// DirectMessage is the payload published when one party messages the other,
// e.g. a cancellation notice sent to the counterparty.
type DirectMessage struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
}

// Message is a generic typed payload envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
